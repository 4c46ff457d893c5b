package game

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChapterStatusOpen   = "open"
	ChapterStatusClosed = "closed"
)

type Chapter struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Index     int       `gorm:"not null;default:0;column:position" json:"index"`
	Title     string    `gorm:"not null;column:title" json:"title"`
	Status    string    `gorm:"not null;default:'open';column:status" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Chapter) TableName() string { return "chapter" }
