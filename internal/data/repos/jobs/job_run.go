package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

// JobRunRepo persists dispatch bookkeeping. Rows are never deleted; a job's
// history is part of the audit trail even after it reaches a terminal status.
type JobRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.JobRun) (*types.JobRun, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.JobRun, error)
	GetByIDForOwner(ctx context.Context, tx *gorm.DB, id, ownerUserID uuid.UUID) (*types.JobRun, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, limit int) ([]*types.JobRun, error)
	MarkDispatched(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	MarkDone(ctx context.Context, tx *gorm.DB, id uuid.UUID, result []byte) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, jobErr string) error
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{db: db, log: baseLog.With("repo", "JobRunRepo")}
}

func (r *jobRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.JobRun) (*types.JobRun, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if run == nil {
		return nil, nil
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = types.JobStatusPending
	}
	if run.Priority == 0 {
		run.Priority = types.DefaultJobPriority
	}
	if err := t.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *jobRunRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.JobRun, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var run types.JobRun
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&run).Error; err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *jobRunRepo) GetByIDForOwner(ctx context.Context, tx *gorm.DB, id, ownerUserID uuid.UUID) (*types.JobRun, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || ownerUserID == uuid.Nil {
		return nil, nil
	}
	var run types.JobRun
	if err := t.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Limit(1).
		Find(&run).Error; err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *jobRunRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, limit int) ([]*types.JobRun, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if ownerUserID == uuid.Nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []*types.JobRun
	if err := t.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *jobRunRepo) MarkDispatched(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	return t.WithContext(ctx).
		Model(&types.JobRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        types.JobStatusDispatched,
			"dispatched_at": &now,
			"updated_at":    now,
		}).Error
}

func (r *jobRunRepo) MarkDone(ctx context.Context, tx *gorm.DB, id uuid.UUID, result []byte) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       types.JobStatusDone,
		"error":        "",
		"completed_at": &now,
		"updated_at":   now,
	}
	if len(result) > 0 {
		updates["result"] = result
	}
	return t.WithContext(ctx).
		Model(&types.JobRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *jobRunRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, jobErr string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	return t.WithContext(ctx).
		Model(&types.JobRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       types.JobStatusFailed,
			"error":        jobErr,
			"completed_at": &now,
			"updated_at":   now,
		}).Error
}
