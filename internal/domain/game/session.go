package game

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusActive   = "active"
	SessionStatusPaused   = "paused"
	SessionStatusArchived = "archived"
)

// GameSession is one player's save slot. At most one session per user may
// carry the active flag; a partial unique index on (user_id) WHERE active
// backs the invariant (see data/db.EnsureIndexes). Deactivated sessions are
// never reactivated, a fresh one is created instead.
type GameSession struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title  string    `gorm:"not null;column:title" json:"title"`
	Active bool      `gorm:"not null;default:false;index" json:"active"`
	Status string    `gorm:"not null;default:'active';column:status" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (GameSession) TableName() string { return "game_session" }
