package app

import (
	"github.com/gin-gonic/gin"

	internalhttp "github.com/iamjulienjulien/rpg-renaissance-backend/internal/http"
	httpH "github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/handlers"
	httpMW "github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/middleware"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	User     *httpH.UserHandler
	Session  *httpH.SessionHandler
	Quest    *httpH.QuestHandler
	Chapter  *httpH.ChapterHandler
	Artifact *httpH.ArtifactHandler
	Job      *httpH.JobHandler
	Worker   *httpH.WorkerHandler
}

func wireHandlers(cfg Config, repos Repos, services Services) Handlers {
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Auth:     httpH.NewAuthHandler(services.Auth),
		User:     httpH.NewUserHandler(repos.User, services.Avatar),
		Session:  httpH.NewSessionHandler(services.Session),
		Quest:    httpH.NewQuestHandler(services.Quest),
		Chapter:  httpH.NewChapterHandler(services.Chapter),
		Artifact: httpH.NewArtifactHandler(services.Generation, services.Job),
		Job:      httpH.NewJobHandler(services.Job),
		Worker:   httpH.NewWorkerHandler(services.JobRunner, cfg.WorkerSecret),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return internalhttp.NewRouter(internalhttp.RouterConfig{
		Log:             log,
		ServiceName:     cfg.ServiceName,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		AuthMiddleware:  middleware.Auth,
		UserHandler:     handlers.User,
		SessionHandler:  handlers.Session,
		QuestHandler:    handlers.Quest,
		ChapterHandler:  handlers.Chapter,
		ArtifactHandler: handlers.Artifact,
		JobHandler:      handlers.Job,
		WorkerHandler:   handlers.Worker,
	})
}
