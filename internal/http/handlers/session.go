package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/response"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/services"
)

type SessionHandler struct {
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// GET /api/session
func (sh *SessionHandler) GetActive(c *gin.Context) {
	session, err := sh.sessionService.ResolveActive(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// POST /api/session/new
func (sh *SessionHandler) StartNew(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	// Empty body is fine; the service falls back to a default title.
	_ = c.ShouldBindJSON(&req)
	session, err := sh.sessionService.StartNew(c.Request.Context(), req.Title)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// GET /api/sessions
func (sh *SessionHandler) List(c *gin.Context) {
	sessions, err := sh.sessionService.ListForUser(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

// POST /api/session/pause
func (sh *SessionHandler) Pause(c *gin.Context) {
	sh.deactivate(c, sh.sessionService.Pause)
}

// POST /api/session/archive
func (sh *SessionHandler) Archive(c *gin.Context) {
	sh.deactivate(c, sh.sessionService.Archive)
}

func (sh *SessionHandler) deactivate(c *gin.Context, op func(ctx context.Context, sessionID uuid.UUID) (*types.GameSession, error)) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	_ = c.ShouldBindJSON(&req)

	var sessionID uuid.UUID
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
			return
		}
		sessionID = parsed
	} else {
		// No explicit id targets the caller's active session.
		active, err := sh.sessionService.ResolveActive(c.Request.Context())
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		sessionID = active.ID
	}

	session, err := op(c.Request.Context(), sessionID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}
