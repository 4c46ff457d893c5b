package app

import (
	"gorm.io/gorm"

	gamerepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/game"
	jobsrepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/jobs"
	narrativerepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/narrative"
	userrepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/user"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

type Repos struct {
	User      userrepo.UserRepo
	UserToken userrepo.UserTokenRepo

	GameSession gamerepo.GameSessionRepo
	Quest       gamerepo.QuestRepo
	Chapter     gamerepo.ChapterRepo

	MissionBrief       narrativerepo.RecordRepo
	QuestCongrats      narrativerepo.RecordRepo
	QuestEncouragement narrativerepo.RecordRepo
	ChapterStory       narrativerepo.RecordRepo

	JobRun jobsrepo.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      userrepo.NewUserRepo(db, log),
		UserToken: userrepo.NewUserTokenRepo(db, log),

		GameSession: gamerepo.NewGameSessionRepo(db, log),
		Quest:       gamerepo.NewQuestRepo(db, log),
		Chapter:     gamerepo.NewChapterRepo(db, log),

		MissionBrief:       narrativerepo.NewMissionBriefRepo(db, log),
		QuestCongrats:      narrativerepo.NewQuestCongratsRepo(db, log),
		QuestEncouragement: narrativerepo.NewQuestEncouragementRepo(db, log),
		ChapterStory:       narrativerepo.NewChapterStoryRepo(db, log),

		JobRun: jobsrepo.NewJobRunRepo(db, log),
	}
}
