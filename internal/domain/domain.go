package domain

import (
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain/game"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain/jobs"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain/narrative"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain/user"
)

// Alias hub so callers can import one package as `types`.

type (
	User      = user.User
	UserToken = user.UserToken

	GameSession = game.GameSession
	Quest       = game.Quest
	Chapter     = game.Chapter

	MissionBrief       = narrative.MissionBrief
	QuestCongrats      = narrative.QuestCongrats
	QuestEncouragement = narrative.QuestEncouragement
	ChapterStory       = narrative.ChapterStory

	JobRun = jobs.JobRun
)

const (
	SessionStatusActive   = game.SessionStatusActive
	SessionStatusPaused   = game.SessionStatusPaused
	SessionStatusArchived = game.SessionStatusArchived

	QuestStatusOpen      = game.QuestStatusOpen
	QuestStatusActive    = game.QuestStatusActive
	QuestStatusCompleted = game.QuestStatusCompleted

	ChapterStatusOpen   = game.ChapterStatusOpen
	ChapterStatusClosed = game.ChapterStatusClosed

	JobStatusPending    = jobs.JobStatusPending
	JobStatusDispatched = jobs.JobStatusDispatched
	JobStatusDone       = jobs.JobStatusDone
	JobStatusFailed     = jobs.JobStatusFailed

	JobTypeMissionBrief       = jobs.JobTypeMissionBrief
	JobTypeQuestCongrats      = jobs.JobTypeQuestCongrats
	JobTypeQuestEncouragement = jobs.JobTypeQuestEncouragement
	JobTypeChapterStory       = jobs.JobTypeChapterStory

	DefaultJobPriority = jobs.DefaultPriority
)
