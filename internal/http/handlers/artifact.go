package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/response"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/services"
)

// ArtifactHandler serves every narrative surface through three verbs per
// kind: read the cache, generate synchronously, enqueue for the worker.
type ArtifactHandler struct {
	generationService services.GenerationService
	jobService        services.JobService
}

func NewArtifactHandler(generationService services.GenerationService, jobService services.JobService) *ArtifactHandler {
	return &ArtifactHandler{
		generationService: generationService,
		jobService:        jobService,
	}
}

// GET /api/quests/:id/mission-brief (and the other kinds). A cache miss is
// not an error at this surface; the artifact is simply null.
func (h *ArtifactHandler) CachedGetter(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entityID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
			return
		}
		artifact, err := h.generationService.Get(c.Request.Context(), kind, entityID)
		if err != nil {
			if errors.Is(err, errdefs.ErrNotFound) {
				response.RespondOK(c, gin.H{"artifact": nil})
				return
			}
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"artifact": artifact})
	}
}

// POST /api/quests/:id/mission-brief?force=true (and the other kinds).
func (h *ArtifactHandler) Generator(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entityID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
			return
		}
		force, _ := strconv.ParseBool(c.Query("force"))
		artifact, cached, err := h.generationService.GetOrGenerate(c.Request.Context(), kind, entityID, force)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"artifact": artifact, "cached": cached})
	}
}

// POST /api/quests/:id/mission-brief/async (and the other kinds).
func (h *ArtifactHandler) AsyncEnqueuer(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entityID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
			return
		}
		var req struct {
			Priority int  `json:"priority"`
			Force    bool `json:"force"`
		}
		_ = c.ShouldBindJSON(&req)
		run, err := h.jobService.Enqueue(c.Request.Context(), kind, entityID, req.Priority, req.Force)
		if err != nil {
			// The pending row survives a failed publish; report it so the
			// client can poll or retry.
			if run != nil && run.Status == types.JobStatusPending {
				c.JSON(http.StatusAccepted, gin.H{"job": run, "dispatched": false})
				return
			}
			response.RespondServiceError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job": run, "dispatched": true})
	}
}
