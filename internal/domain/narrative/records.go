package narrative

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Generated artifacts. Each table holds at most one row per (entity, session)
// pair; rows are written exclusively through the generation engine's upsert.

type MissionBrief struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuestID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_mission_brief_key" json:"quest_id"`
	SessionID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_mission_brief_key" json:"session_id"`
	Payload      datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	RenderedText string         `gorm:"column:rendered_text" json:"rendered_text"`
	Model        string         `gorm:"column:model" json:"model"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (MissionBrief) TableName() string { return "mission_brief" }

type QuestCongrats struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuestID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_quest_congrats_key" json:"quest_id"`
	SessionID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_quest_congrats_key" json:"session_id"`
	Payload      datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	RenderedText string         `gorm:"column:rendered_text" json:"rendered_text"`
	Model        string         `gorm:"column:model" json:"model"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (QuestCongrats) TableName() string { return "quest_congrats" }

type QuestEncouragement struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuestID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_quest_encouragement_key" json:"quest_id"`
	SessionID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_quest_encouragement_key" json:"session_id"`
	Payload      datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	RenderedText string         `gorm:"column:rendered_text" json:"rendered_text"`
	Model        string         `gorm:"column:model" json:"model"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (QuestEncouragement) TableName() string { return "quest_encouragement" }

type ChapterStory struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChapterID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_chapter_story_key" json:"chapter_id"`
	SessionID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_chapter_story_key" json:"session_id"`
	Payload      datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	RenderedText string         `gorm:"column:rendered_text" json:"rendered_text"`
	Model        string         `gorm:"column:model" json:"model"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ChapterStory) TableName() string { return "chapter_story" }
