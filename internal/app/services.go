package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/services"
)

type Services struct {
	Avatar  services.AvatarService
	Auth    services.AuthService
	Session services.SessionService
	Quest   services.QuestService
	Chapter services.ChapterService

	Generation services.GenerationService
	Job        services.JobService
	JobRunner  services.JobRunnerService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	avatarService, err := services.NewAvatarService(log, clients.GcpBucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	authService := services.NewAuthService(
		db,
		log,
		repos.User,
		repos.UserToken,
		avatarService,
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)

	sessionService := services.NewSessionService(db, log, repos.GameSession)
	questService := services.NewQuestService(db, log, repos.Quest, sessionService)
	chapterService := services.NewChapterService(db, log, repos.Chapter, sessionService)

	// GenLock is optional; a nil interface disables it inside the engine.
	var genLock services.GenLocker
	if clients.GenLock != nil {
		genLock = clients.GenLock
	}
	generationService := services.NewGenerationService(
		db,
		log,
		sessionService,
		repos.Quest,
		repos.Chapter,
		repos.MissionBrief,
		repos.QuestCongrats,
		repos.QuestEncouragement,
		repos.ChapterStory,
		clients.OpenaiClient,
		genLock,
	)

	jobService := services.NewJobService(
		db,
		log,
		repos.JobRun,
		sessionService,
		clients.Publisher,
		cfg.WorkerCallbackURL,
		cfg.WorkerSecret,
	)
	jobRunnerService := services.NewJobRunnerService(db, log, repos.JobRun, generationService)

	return Services{
		Avatar:     avatarService,
		Auth:       authService,
		Session:    sessionService,
		Quest:      questService,
		Chapter:    chapterService,
		Generation: generationService,
		Job:        jobService,
		JobRunner:  jobRunnerService,
	}, nil
}
