package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobStatusPending    = "pending"
	JobStatusDispatched = "dispatched"
	JobStatusDone       = "done"
	JobStatusFailed     = "failed"
)

const (
	JobTypeMissionBrief       = "mission_brief"
	JobTypeQuestCongrats      = "quest_congrats"
	JobTypeQuestEncouragement = "quest_encouragement"
	JobTypeChapterStory       = "chapter_story"
)

// DefaultPriority is a mid-range score; lower means more urgent.
const DefaultPriority = 5

// JobRun is the durable record of one unit of async generation work. Rows are
// never deleted; terminal status plus error/result form the audit trail.
type JobRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	SessionID   *uuid.UUID     `gorm:"type:uuid;column:session_id;index" json:"session_id,omitempty"`
	JobType     string         `gorm:"column:job_type;not null;index" json:"job_type"`
	EntityType  string         `gorm:"column:entity_type;index" json:"entity_type,omitempty"`
	EntityID    *uuid.UUID     `gorm:"type:uuid;column:entity_id;index" json:"entity_id,omitempty"`
	Priority    int            `gorm:"column:priority;not null;default:5" json:"priority"`
	Status      string         `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Error       string         `gorm:"column:error" json:"error,omitempty"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Result      datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`

	DispatchedAt *time.Time `gorm:"column:dispatched_at" json:"dispatched_at,omitempty"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (JobRun) TableName() string { return "job_run" }
