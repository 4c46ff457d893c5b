package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/response"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/services"
)

type QuestHandler struct {
	questService services.QuestService
}

func NewQuestHandler(questService services.QuestService) *QuestHandler {
	return &QuestHandler{questService: questService}
}

// POST /api/quests
func (qh *QuestHandler) Create(c *gin.Context) {
	var req services.CreateQuestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	quest, err := qh.questService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quest": quest})
}

// GET /api/quests
func (qh *QuestHandler) List(c *gin.Context) {
	quests, err := qh.questService.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quests": quests})
}

// GET /api/quests/:id
func (qh *QuestHandler) Get(c *gin.Context) {
	questID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_quest_id", err)
		return
	}
	quest, err := qh.questService.Get(c.Request.Context(), questID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quest": quest})
}

// POST /api/quests/:id/complete
func (qh *QuestHandler) Complete(c *gin.Context) {
	questID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_quest_id", err)
		return
	}
	quest, err := qh.questService.Complete(c.Request.Context(), questID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quest": quest})
}
