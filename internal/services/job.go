package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/clients/qstash"
	jobsrepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/jobs"
	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/ctxutil"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

// jobEntityTypes maps each job type to the entity table its id points into.
var jobEntityTypes = map[string]string{
	types.JobTypeMissionBrief:       "quest",
	types.JobTypeQuestCongrats:      "quest",
	types.JobTypeQuestEncouragement: "quest",
	types.JobTypeChapterStory:       "chapter",
}

// JobPayload is what we record on the run row: enough to re-derive the work
// plus the trace ids of the originating request.
type JobPayload struct {
	JobType   string `json:"job_type"`
	EntityID  string `json:"entity_id"`
	Force     bool   `json:"force,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// CallbackBody is the message the queue delivers to the worker endpoint. Only
// the job id travels; everything else is re-read from the run row so a stale
// queue message can never override the database.
type CallbackBody struct {
	JobID        string `json:"job_id"`
	WorkerSecret string `json:"worker_secret"`
}

// JobService records async generation work and hands it to the queue. Enqueue
// returns as soon as the row is durable and the publish attempt has resolved;
// the actual generation happens in the worker callback.
type JobService interface {
	// Enqueue records the work and publishes it. force rides in the payload
	// so the worker regenerates even over an existing cached artifact.
	Enqueue(ctx context.Context, jobType string, entityID uuid.UUID, priority int, force bool) (*types.JobRun, error)
	Get(ctx context.Context, jobID uuid.UUID) (*types.JobRun, error)
	ListForUser(ctx context.Context, limit int) ([]*types.JobRun, error)
}

type jobService struct {
	db                *gorm.DB
	log               *logger.Logger
	jobRunRepo        jobsrepo.JobRunRepo
	sessionService    SessionService
	publisher         qstash.Publisher
	workerCallbackURL string
	workerSecret      string
}

func NewJobService(
	db *gorm.DB,
	log *logger.Logger,
	jobRunRepo jobsrepo.JobRunRepo,
	sessionService SessionService,
	publisher qstash.Publisher,
	workerCallbackURL string,
	workerSecret string,
) JobService {
	return &jobService{
		db:                db,
		log:               log.With("service", "JobService"),
		jobRunRepo:        jobRunRepo,
		sessionService:    sessionService,
		publisher:         publisher,
		workerCallbackURL: workerCallbackURL,
		workerSecret:      workerSecret,
	}
}

func (js *jobService) Enqueue(ctx context.Context, jobType string, entityID uuid.UUID, priority int, force bool) (*types.JobRun, error) {
	rd := requestdata.Get(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errdefs.ErrNotAuthenticated
	}
	entityType, ok := jobEntityTypes[jobType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown job type %q", errdefs.ErrInvalidArgument, jobType)
	}
	if entityID == uuid.Nil {
		return nil, fmt.Errorf("%w: entity id required", errdefs.ErrInvalidArgument)
	}
	if priority <= 0 {
		priority = types.DefaultJobPriority
	}

	session, err := js.sessionService.ResolveActive(ctx)
	if err != nil {
		return nil, err
	}

	payload := JobPayload{
		JobType:  jobType,
		EntityID: entityID.String(),
		Force:    force,
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		payload.TraceID = td.TraceID
		payload.RequestID = td.RequestID
	}
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode job payload: %w", err)
	}

	run, err := js.jobRunRepo.Create(ctx, nil, &types.JobRun{
		OwnerUserID: rd.UserID,
		SessionID:   &session.ID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    &entityID,
		Priority:    priority,
		Status:      types.JobStatusPending,
		Payload:     datatypes.JSON(rawPayload),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create job run: %v", errdefs.ErrStorage, err)
	}
	requestdata.Patch(ctx, requestdata.Fields{JobID: run.ID})

	body, err := json.Marshal(CallbackBody{JobID: run.ID.String(), WorkerSecret: js.workerSecret})
	if err != nil {
		return nil, fmt.Errorf("encode callback body: %w", err)
	}

	// The row is durable before the publish attempt. A failed publish leaves
	// it pending; the queue is never the system of record.
	if pubErr := js.publisher.Publish(ctx, js.workerCallbackURL, body, run.ID.String()); pubErr != nil {
		js.log.Warn("Job publish failed, run stays pending",
			"job_id", run.ID.String(),
			"job_type", jobType,
			"error", pubErr.Error(),
		)
		return run, fmt.Errorf("publish job: %w", pubErr)
	}

	if mErr := js.jobRunRepo.MarkDispatched(ctx, nil, run.ID); mErr != nil {
		js.log.Warn("Failed to mark job dispatched", "job_id", run.ID.String(), "error", mErr.Error())
	} else {
		run.Status = types.JobStatusDispatched
	}
	return run, nil
}

func (js *jobService) Get(ctx context.Context, jobID uuid.UUID) (*types.JobRun, error) {
	rd := requestdata.Get(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errdefs.ErrNotAuthenticated
	}
	run, err := js.jobRunRepo.GetByIDForOwner(ctx, nil, jobID, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch job run: %v", errdefs.ErrStorage, err)
	}
	if run == nil {
		return nil, errdefs.ErrJobNotFound
	}
	return run, nil
}

func (js *jobService) ListForUser(ctx context.Context, limit int) ([]*types.JobRun, error) {
	rd := requestdata.Get(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errdefs.ErrNotAuthenticated
	}
	runs, err := js.jobRunRepo.ListByOwner(ctx, nil, rd.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list job runs: %v", errdefs.ErrStorage, err)
	}
	return runs, nil
}
