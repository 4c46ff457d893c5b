package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/response"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/services"
)

type JobHandler struct {
	jobService services.JobService
}

func NewJobHandler(jobService services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// GET /api/jobs/:id
func (jh *JobHandler) Get(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := jh.jobService.Get(c.Request.Context(), jobID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/jobs?limit=50
func (jh *JobHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	jobs, err := jh.jobService.ListForUser(c.Request.Context(), limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"jobs": jobs})
}
