package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/response"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/services"
)

// WorkerHandler receives queue callbacks. It is mounted outside the JWT
// group; the shared secret in the body is the only credential.
type WorkerHandler struct {
	jobRunnerService services.JobRunnerService
	workerSecret     string
}

func NewWorkerHandler(jobRunnerService services.JobRunnerService, workerSecret string) *WorkerHandler {
	return &WorkerHandler{
		jobRunnerService: jobRunnerService,
		workerSecret:     workerSecret,
	}
}

// POST /worker/jobs
func (wh *WorkerHandler) ExecuteJob(c *gin.Context) {
	var req struct {
		JobID        string `json:"job_id"`
		WorkerSecret string `json:"worker_secret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if wh.workerSecret == "" ||
		subtle.ConstantTimeCompare([]byte(req.WorkerSecret), []byte(wh.workerSecret)) != 1 {
		response.RespondServiceError(c, errdefs.ErrUnauthorized)
		return
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}

	run, err := wh.jobRunnerService.ExecuteJob(c.Request.Context(), jobID)
	if err != nil {
		// A failed run is recorded; the broker gets the mapped status and
		// decides whether to re-deliver.
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job": run})
}
