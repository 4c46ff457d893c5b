package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

type ChapterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Chapter) ([]*types.Chapter, error)
	GetBySessionAndID(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) (*types.Chapter, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.Chapter, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type chapterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChapterRepo(db *gorm.DB, baseLog *logger.Logger) ChapterRepo {
	return &chapterRepo{
		db:  db,
		log: baseLog.With("repo", "ChapterRepo"),
	}
}

func (r *chapterRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Chapter) ([]*types.Chapter, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Chapter{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chapterRepo) GetBySessionAndID(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) (*types.Chapter, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var row types.Chapter
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

func (r *chapterRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.Chapter, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Chapter
	if sessionID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chapterRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Chapter{}).
		Where("id = ?", id).
		Updates(updates).Error
}
