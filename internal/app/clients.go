package app

import (
	"fmt"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/clients/gcp"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/clients/openai"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/clients/qstash"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/clients/redis"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

type Clients struct {
	OpenaiClient openai.Client
	Publisher    qstash.Publisher
	GcpBucket    gcp.BucketService
	GenLock      redis.GenLock
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	publisher, err := qstash.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init queue publisher: %w", err)
	}

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	var genLock redis.GenLock
	if cfg.GenLockEnabled {
		gl, glErr := redis.NewGenLock(log)
		if glErr != nil {
			return Clients{}, fmt.Errorf("init generation lock: %w", glErr)
		}
		genLock = gl
	}

	return Clients{
		OpenaiClient: openaiClient,
		Publisher:    publisher,
		GcpBucket:    bucket,
		GenLock:      genLock,
	}, nil
}

func (c Clients) Close() {
	if c.GenLock != nil {
		_ = c.GenLock.Close()
	}
}
