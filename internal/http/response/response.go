package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/apierr"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps service sentinels onto the HTTP boundary. Handlers
// call this for any error that is not a request-shape problem.
func RespondServiceError(c *gin.Context, err error) {
	ae := classify(err)
	RespondError(c, ae.Status, ae.Code, err)
}

func classify(err error) *apierr.Error {
	switch {
	case errors.Is(err, errdefs.ErrNotAuthenticated):
		return apierr.New(http.StatusUnauthorized, "not_authenticated", err)
	case errors.Is(err, errdefs.ErrUnauthorized):
		return apierr.New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, errdefs.ErrJobNotFound):
		return apierr.New(http.StatusNotFound, "job_not_found", err)
	case errors.Is(err, errdefs.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, errdefs.ErrInvalidArgument):
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, errdefs.ErrGenerationFailed):
		return apierr.New(http.StatusBadGateway, "generation_failed", err)
	case errors.Is(err, errdefs.ErrGenerationInvalid):
		return apierr.New(http.StatusBadGateway, "generation_invalid", err)
	case errors.Is(err, errdefs.ErrStorage):
		return apierr.New(http.StatusInternalServerError, "storage_error", err)
	default:
		return apierr.New(http.StatusInternalServerError, "internal_error", err)
	}
}
