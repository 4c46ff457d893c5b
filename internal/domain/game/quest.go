package game

import (
	"time"

	"github.com/google/uuid"
)

const (
	QuestStatusOpen      = "open"
	QuestStatusActive    = "active"
	QuestStatusCompleted = "completed"
)

type Quest struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID   uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Realm       string    `gorm:"column:realm" json:"realm"`
	Status      string    `gorm:"not null;default:'open';column:status;index" json:"status"`
	Difficulty  int       `gorm:"not null;default:1;column:difficulty" json:"difficulty"`

	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Quest) TableName() string { return "quest" }
