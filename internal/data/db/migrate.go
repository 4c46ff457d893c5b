package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity + auth
		&types.User{},
		&types.UserToken{},

		// Save slots + game entities
		&types.GameSession{},
		&types.Quest{},
		&types.Chapter{},

		// Generated artifacts
		&types.MissionBrief{},
		&types.QuestCongrats{},
		&types.QuestEncouragement{},
		&types.ChapterStory{},

		// Jobs
		&types.JobRun{},
	)
}

// EnsureIndexes creates constraints gorm tags cannot express. The partial
// unique index is what makes "at most one active save per user" hold under
// concurrent session resolution; the resolver maps its violation to a re-read.
func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_game_session_user_active ON game_session(user_id) WHERE active;`,
	).Error; err != nil {
		return fmt.Errorf("create ux_game_session_user_active: %w", err)
	}
	return nil
}
