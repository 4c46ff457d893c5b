package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

type GameSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.GameSession) (*types.GameSession, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.GameSession, error)
	GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.GameSession, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GameSession, error)
	DeactivateAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type gameSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGameSessionRepo(db *gorm.DB, baseLog *logger.Logger) GameSessionRepo {
	return &gameSessionRepo{
		db:  db,
		log: baseLog.With("repo", "GameSessionRepo"),
	}
}

func (r *gameSessionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.GameSession) (*types.GameSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	// Intentionally no OnConflict clause: the partial unique index on
	// (user_id) WHERE active must surface as an error so the resolver can
	// detect a lost race and re-read.
	if err := t.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *gameSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.GameSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.GameSession
	if err := t.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *gameSessionRepo) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.GameSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.GameSession
	if err := t.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *gameSessionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GameSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.GameSession
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gameSessionRepo) DeactivateAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	return t.WithContext(ctx).
		Model(&types.GameSession{}).
		Where("user_id = ? AND active = ?", userID, true).
		Updates(map[string]interface{}{
			"active":     false,
			"status":     types.SessionStatusArchived,
			"updated_at": now,
		}).Error
}

func (r *gameSessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(ctx).
		Model(&types.GameSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}
