package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/response"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/services"
)

type ChapterHandler struct {
	chapterService services.ChapterService
}

func NewChapterHandler(chapterService services.ChapterService) *ChapterHandler {
	return &ChapterHandler{chapterService: chapterService}
}

// POST /api/chapters
func (ch *ChapterHandler) Create(c *gin.Context) {
	var req services.CreateChapterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	chapter, err := ch.chapterService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chapter": chapter})
}

// GET /api/chapters
func (ch *ChapterHandler) List(c *gin.Context) {
	chapters, err := ch.chapterService.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chapters": chapters})
}

// GET /api/chapters/:id
func (ch *ChapterHandler) Get(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_chapter_id", err)
		return
	}
	chapter, err := ch.chapterService.Get(c.Request.Context(), chapterID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chapter": chapter})
}
