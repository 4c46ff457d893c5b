package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	jobsrepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/jobs"
	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

// JobRunnerService executes queue-delivered jobs. The queue is at-least-once,
// so execution routes through the generation cache: a re-delivered job whose
// artifact already exists returns the cached row without a provider call.
type JobRunnerService interface {
	ExecuteJob(ctx context.Context, jobID uuid.UUID) (*types.JobRun, error)
}

type jobRunnerService struct {
	db                *gorm.DB
	log               *logger.Logger
	jobRunRepo        jobsrepo.JobRunRepo
	generationService GenerationService
}

func NewJobRunnerService(
	db *gorm.DB,
	log *logger.Logger,
	jobRunRepo jobsrepo.JobRunRepo,
	generationService GenerationService,
) JobRunnerService {
	return &jobRunnerService{
		db:                db,
		log:               log.With("service", "JobRunnerService"),
		jobRunRepo:        jobRunRepo,
		generationService: generationService,
	}
}

type jobResult struct {
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id"`
	Cached   bool   `json:"cached"`
	Model    string `json:"model,omitempty"`
}

func (jr *jobRunnerService) ExecuteJob(ctx context.Context, jobID uuid.UUID) (*types.JobRun, error) {
	if jobID == uuid.Nil {
		return nil, errdefs.ErrJobNotFound
	}

	run, err := jr.jobRunRepo.GetByID(ctx, nil, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch job run: %v", errdefs.ErrStorage, err)
	}
	if run == nil {
		return nil, errdefs.ErrJobNotFound
	}
	if run.Status == types.JobStatusDone {
		// Re-delivered after completion; nothing to redo.
		return run, nil
	}
	if run.EntityID == nil || *run.EntityID == uuid.Nil {
		return jr.fail(ctx, run, fmt.Errorf("job run missing entity id"))
	}

	// The worker request carries no user token; the run row is the authority
	// on whose behalf the work executes.
	rd := &requestdata.RequestData{
		UserID: run.OwnerUserID,
		JobID:  run.ID,
	}
	if run.SessionID != nil {
		rd.SessionID = *run.SessionID
	}
	jobCtx := requestdata.With(ctx, rd)

	// The recorded payload decides whether the cache may serve a
	// re-delivery; a force enqueue regenerates regardless.
	var payload JobPayload
	if len(run.Payload) > 0 {
		if uErr := json.Unmarshal(run.Payload, &payload); uErr != nil {
			jr.log.Warn("Undecodable job payload, treating as defaults",
				"job_id", run.ID.String(),
				"error", uErr.Error(),
			)
		}
	}

	artifact, cached, genErr := jr.generationService.GetOrGenerate(jobCtx, run.JobType, *run.EntityID, payload.Force)
	if genErr != nil {
		return jr.fail(ctx, run, genErr)
	}

	result := jobResult{
		Kind:     artifact.Kind,
		EntityID: artifact.EntityID.String(),
		Cached:   cached,
		Model:    artifact.Model,
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return jr.fail(ctx, run, fmt.Errorf("encode job result: %w", err))
	}

	if mErr := jr.jobRunRepo.MarkDone(ctx, nil, run.ID, raw); mErr != nil {
		return nil, fmt.Errorf("%w: mark job done: %v", errdefs.ErrStorage, mErr)
	}

	jr.log.Info("Job executed",
		"job_id", run.ID.String(),
		"job_type", run.JobType,
		"cached", cached,
	)

	done, err := jr.jobRunRepo.GetByID(ctx, nil, run.ID)
	if err != nil || done == nil {
		run.Status = types.JobStatusDone
		return run, nil
	}
	return done, nil
}

func (jr *jobRunnerService) fail(ctx context.Context, run *types.JobRun, cause error) (*types.JobRun, error) {
	jr.log.Warn("Job execution failed",
		"job_id", run.ID.String(),
		"job_type", run.JobType,
		"error", cause.Error(),
	)
	if mErr := jr.jobRunRepo.MarkFailed(ctx, nil, run.ID, cause.Error()); mErr != nil {
		jr.log.Warn("Failed to mark job failed", "job_id", run.ID.String(), "error", mErr.Error())
	}
	run.Status = types.JobStatusFailed
	run.Error = cause.Error()
	return run, cause
}
