package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	httpH "github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/handlers"
	httpMW "github.com/iamjulienjulien/rpg-renaissance-backend/internal/http/middleware"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler

	SessionHandler  *httpH.SessionHandler
	QuestHandler    *httpH.QuestHandler
	ChapterHandler  *httpH.ChapterHandler
	ArtifactHandler *httpH.ArtifactHandler
	JobHandler      *httpH.JobHandler

	WorkerHandler *httpH.WorkerHandler
	HealthHandler *httpH.HealthHandler

	ServiceName string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "rpg-renaissance"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Queue callbacks authenticate with the shared worker secret, not a JWT.
	if cfg.WorkerHandler != nil {
		r.POST("/worker/jobs", cfg.WorkerHandler.ExecuteJob)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.POST("/me/avatar", cfg.UserHandler.UploadAvatar)
		}

		if cfg.SessionHandler != nil {
			protected.GET("/session", cfg.SessionHandler.GetActive)
			protected.GET("/sessions", cfg.SessionHandler.List)
			protected.POST("/session/new", cfg.SessionHandler.StartNew)
			protected.POST("/session/pause", cfg.SessionHandler.Pause)
			protected.POST("/session/archive", cfg.SessionHandler.Archive)
		}

		if cfg.QuestHandler != nil {
			protected.POST("/quests", cfg.QuestHandler.Create)
			protected.GET("/quests", cfg.QuestHandler.List)
			protected.GET("/quests/:id", cfg.QuestHandler.Get)
			protected.POST("/quests/:id/complete", cfg.QuestHandler.Complete)
		}

		if cfg.ChapterHandler != nil {
			protected.POST("/chapters", cfg.ChapterHandler.Create)
			protected.GET("/chapters", cfg.ChapterHandler.List)
			protected.GET("/chapters/:id", cfg.ChapterHandler.Get)
		}

		if cfg.ArtifactHandler != nil {
			ah := cfg.ArtifactHandler
			protected.GET("/quests/:id/mission-brief", ah.CachedGetter(types.JobTypeMissionBrief))
			protected.POST("/quests/:id/mission-brief", ah.Generator(types.JobTypeMissionBrief))
			protected.POST("/quests/:id/mission-brief/async", ah.AsyncEnqueuer(types.JobTypeMissionBrief))

			protected.GET("/quests/:id/congrats", ah.CachedGetter(types.JobTypeQuestCongrats))
			protected.POST("/quests/:id/congrats", ah.Generator(types.JobTypeQuestCongrats))
			protected.POST("/quests/:id/congrats/async", ah.AsyncEnqueuer(types.JobTypeQuestCongrats))

			protected.GET("/quests/:id/encouragement", ah.CachedGetter(types.JobTypeQuestEncouragement))
			protected.POST("/quests/:id/encouragement", ah.Generator(types.JobTypeQuestEncouragement))
			protected.POST("/quests/:id/encouragement/async", ah.AsyncEnqueuer(types.JobTypeQuestEncouragement))

			protected.GET("/chapters/:id/story", ah.CachedGetter(types.JobTypeChapterStory))
			protected.POST("/chapters/:id/story", ah.Generator(types.JobTypeChapterStory))
			protected.POST("/chapters/:id/story/async", ah.AsyncEnqueuer(types.JobTypeChapterStory))
		}

		if cfg.JobHandler != nil {
			protected.GET("/jobs", cfg.JobHandler.List)
			protected.GET("/jobs/:id", cfg.JobHandler.Get)
		}
	}

	return r
}
