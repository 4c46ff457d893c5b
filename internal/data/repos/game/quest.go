package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

type QuestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Quest) ([]*types.Quest, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quest, error)
	GetBySessionAndID(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) (*types.Quest, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.Quest, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type questRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestRepo(db *gorm.DB, baseLog *logger.Logger) QuestRepo {
	return &questRepo{
		db:  db,
		log: baseLog.With("repo", "QuestRepo"),
	}
}

func (r *questRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Quest) ([]*types.Quest, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Quest{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *questRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quest, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Quest
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

func (r *questRepo) GetBySessionAndID(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) (*types.Quest, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var row types.Quest
	if err := t.WithContext(ctx).
		Where("session_id = ? AND id = ?", sessionID, id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *questRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.Quest, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Quest
	if sessionID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Quest{}).
		Where("id = ?", id).
		Updates(updates).Error
}
