package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
)

// GenLock is a best-effort advisory lock over one generation key. It narrows
// the window in which two processes call the text provider for the same
// artifact; correctness never depends on it because the row upsert keeps the
// table single-rowed per key either way.
type GenLock interface {
	// Acquire returns a release func and true when the lock was taken. When
	// the lock is held elsewhere it returns (nil, false, nil) and the caller
	// proceeds without it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
	Close() error
}

type genLock struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewGenLock(log *logger.Logger) (GenLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &genLock{
		log: log.With("service", "RedisGenLock"),
		rdb: rdb,
	}, nil
}

// releaseScript deletes the key only when it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *genLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if l == nil || l.rdb == nil {
		return nil, false, fmt.Errorf("redis gen lock not initialized")
	}
	key = "genlock:" + strings.TrimSpace(key)
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		relCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.Warn("Gen lock release failed", "key", key, "error", err.Error())
		}
	}
	return release, true, nil
}

func (l *genLock) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
