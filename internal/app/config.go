package app

import (
	"time"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/envutil"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// WorkerCallbackURL is where the queue delivers jobs back; WorkerSecret
	// authenticates those callbacks.
	WorkerCallbackURL string
	WorkerSecret      string

	// GenLockEnabled turns on the redis advisory lock around generation.
	GenLockEnabled bool

	ServiceName string
	Environment string
	Version     string
	Port        string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		JWTSecretKey:      envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:    envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL:   envutil.Seconds("REFRESH_TOKEN_TTL", 24*time.Hour),
		WorkerCallbackURL: envutil.String("WORKER_CALLBACK_URL", "http://localhost:8080/worker/jobs"),
		WorkerSecret:      envutil.String("WORKER_SECRET", ""),
		GenLockEnabled:    envutil.Bool("GEN_LOCK_ENABLED", false),
		ServiceName:       envutil.String("SERVICE_NAME", "rpg-renaissance"),
		Environment:       envutil.String("ENVIRONMENT", "development"),
		Version:           envutil.String("SERVICE_VERSION", "dev"),
		Port:              envutil.String("PORT", "8080"),
	}
	if cfg.WorkerSecret == "" {
		log.Warn("WORKER_SECRET not set; worker callbacks will be rejected")
	}
	return cfg
}
