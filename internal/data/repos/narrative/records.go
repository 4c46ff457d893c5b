package narrative

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

// Record is the kind-neutral view of one generated-artifact row. The four
// artifact tables share this shape; only the table and the entity key column
// differ, so all of them are served by one repo implementation.
type Record struct {
	ID           uuid.UUID      `json:"id"`
	EntityID     uuid.UUID      `json:"entity_id"`
	SessionID    uuid.UUID      `json:"session_id"`
	Payload      datatypes.JSON `json:"payload"`
	RenderedText string         `json:"rendered_text"`
	Model        string         `json:"model"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type RecordRepo interface {
	GetByKey(ctx context.Context, tx *gorm.DB, entityID, sessionID uuid.UUID) (*Record, error)
	// UpsertByKey overwrites any existing row for (entity, session) atomically
	// and returns the stored row, timestamps included.
	UpsertByKey(ctx context.Context, tx *gorm.DB, rec *Record) (*Record, error)
}

type rowCodec struct {
	keyColumn string
	newRow    func() interface{}
	toRow     func(*Record) interface{}
	fromRow   func(interface{}) *Record
}

type recordRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	codec rowCodec
}

func NewMissionBriefRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return &recordRepo{
		db:  db,
		log: baseLog.With("repo", "MissionBriefRepo"),
		codec: rowCodec{
			keyColumn: "quest_id",
			newRow:    func() interface{} { return &types.MissionBrief{} },
			toRow: func(rec *Record) interface{} {
				return &types.MissionBrief{
					ID: rec.ID, QuestID: rec.EntityID, SessionID: rec.SessionID,
					Payload: rec.Payload, RenderedText: rec.RenderedText, Model: rec.Model,
					CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt,
				}
			},
			fromRow: func(row interface{}) *Record {
				m := row.(*types.MissionBrief)
				if m.ID == uuid.Nil {
					return nil
				}
				return &Record{
					ID: m.ID, EntityID: m.QuestID, SessionID: m.SessionID,
					Payload: m.Payload, RenderedText: m.RenderedText, Model: m.Model,
					CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
				}
			},
		},
	}
}

func NewQuestCongratsRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return &recordRepo{
		db:  db,
		log: baseLog.With("repo", "QuestCongratsRepo"),
		codec: rowCodec{
			keyColumn: "quest_id",
			newRow:    func() interface{} { return &types.QuestCongrats{} },
			toRow: func(rec *Record) interface{} {
				return &types.QuestCongrats{
					ID: rec.ID, QuestID: rec.EntityID, SessionID: rec.SessionID,
					Payload: rec.Payload, RenderedText: rec.RenderedText, Model: rec.Model,
					CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt,
				}
			},
			fromRow: func(row interface{}) *Record {
				m := row.(*types.QuestCongrats)
				if m.ID == uuid.Nil {
					return nil
				}
				return &Record{
					ID: m.ID, EntityID: m.QuestID, SessionID: m.SessionID,
					Payload: m.Payload, RenderedText: m.RenderedText, Model: m.Model,
					CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
				}
			},
		},
	}
}

func NewQuestEncouragementRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return &recordRepo{
		db:  db,
		log: baseLog.With("repo", "QuestEncouragementRepo"),
		codec: rowCodec{
			keyColumn: "quest_id",
			newRow:    func() interface{} { return &types.QuestEncouragement{} },
			toRow: func(rec *Record) interface{} {
				return &types.QuestEncouragement{
					ID: rec.ID, QuestID: rec.EntityID, SessionID: rec.SessionID,
					Payload: rec.Payload, RenderedText: rec.RenderedText, Model: rec.Model,
					CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt,
				}
			},
			fromRow: func(row interface{}) *Record {
				m := row.(*types.QuestEncouragement)
				if m.ID == uuid.Nil {
					return nil
				}
				return &Record{
					ID: m.ID, EntityID: m.QuestID, SessionID: m.SessionID,
					Payload: m.Payload, RenderedText: m.RenderedText, Model: m.Model,
					CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
				}
			},
		},
	}
}

func NewChapterStoryRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return &recordRepo{
		db:  db,
		log: baseLog.With("repo", "ChapterStoryRepo"),
		codec: rowCodec{
			keyColumn: "chapter_id",
			newRow:    func() interface{} { return &types.ChapterStory{} },
			toRow: func(rec *Record) interface{} {
				return &types.ChapterStory{
					ID: rec.ID, ChapterID: rec.EntityID, SessionID: rec.SessionID,
					Payload: rec.Payload, RenderedText: rec.RenderedText, Model: rec.Model,
					CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt,
				}
			},
			fromRow: func(row interface{}) *Record {
				m := row.(*types.ChapterStory)
				if m.ID == uuid.Nil {
					return nil
				}
				return &Record{
					ID: m.ID, EntityID: m.ChapterID, SessionID: m.SessionID,
					Payload: m.Payload, RenderedText: m.RenderedText, Model: m.Model,
					CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
				}
			},
		},
	}
}

func (r *recordRepo) GetByKey(ctx context.Context, tx *gorm.DB, entityID, sessionID uuid.UUID) (*Record, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if entityID == uuid.Nil || sessionID == uuid.Nil {
		return nil, nil
	}
	row := r.codec.newRow()
	if err := t.WithContext(ctx).
		Where(r.codec.keyColumn+" = ? AND session_id = ?", entityID, sessionID).
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	return r.codec.fromRow(row), nil
}

func (r *recordRepo) UpsertByKey(ctx context.Context, tx *gorm.DB, rec *Record) (*Record, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if rec == nil || rec.EntityID == uuid.Nil || rec.SessionID == uuid.Nil {
		return nil, nil
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	if err := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: r.codec.keyColumn}, {Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"payload",
				"rendered_text",
				"model",
				"updated_at",
			}),
		}).
		Create(r.codec.toRow(rec)).Error; err != nil {
		return nil, err
	}
	// Re-read so callers see canonical ids and timestamps after a conflict.
	return r.GetByKey(ctx, tx, rec.EntityID, rec.SessionID)
}
