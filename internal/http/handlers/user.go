package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	userrepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/user"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/response"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/services"
)

type UserHandler struct {
	userRepo      userrepo.UserRepo
	avatarService services.AvatarService
}

func NewUserHandler(userRepo userrepo.UserRepo, avatarService services.AvatarService) *UserHandler {
	return &UserHandler{userRepo: userRepo, avatarService: avatarService}
}

func (uh *UserHandler) currentUser(c *gin.Context) *requestdata.RequestData {
	rd := requestdata.Get(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondServiceError(c, errdefs.ErrNotAuthenticated)
		return nil
	}
	return rd
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	rd := uh.currentUser(c)
	if rd == nil {
		return
	}
	user, err := uh.userRepo.GetByID(c.Request.Context(), nil, rd.UserID)
	if err != nil {
		response.RespondServiceError(c, fmt.Errorf("%w: fetch user: %v", errdefs.ErrStorage, err))
		return
	}
	if user == nil {
		response.RespondServiceError(c, errdefs.ErrNotFound)
		return
	}
	user.Password = ""
	response.RespondOK(c, gin.H{"user": user})
}

// POST /api/me/avatar (multipart/form-data, field "file")
func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	const maxBytes = 10 << 20

	rd := uh.currentUser(c)
	if rd == nil {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "open_file_failed", err)
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "read_file_failed", err)
		return
	}
	if len(raw) > maxBytes {
		response.RespondError(c, http.StatusBadRequest, "file_too_large", fmt.Errorf("avatar exceeds %d bytes", maxBytes))
		return
	}

	user, err := uh.userRepo.GetByID(c.Request.Context(), nil, rd.UserID)
	if err != nil {
		response.RespondServiceError(c, fmt.Errorf("%w: fetch user: %v", errdefs.ErrStorage, err))
		return
	}
	if user == nil {
		response.RespondServiceError(c, errdefs.ErrNotFound)
		return
	}

	if err := uh.avatarService.CreateAndUploadUserAvatarFromImage(c.Request.Context(), user, raw); err != nil {
		response.RespondError(c, http.StatusBadRequest, "upload_avatar_failed", err)
		return
	}

	if err := uh.userRepo.UpdateFields(c.Request.Context(), nil, user.ID, map[string]interface{}{
		"avatar_bucket_key": user.AvatarBucketKey,
		"avatar_url":        user.AvatarURL,
	}); err != nil {
		response.RespondServiceError(c, fmt.Errorf("%w: update avatar fields: %v", errdefs.ErrStorage, err))
		return
	}

	user.Password = ""
	response.RespondOK(c, gin.H{"user": user})
}
