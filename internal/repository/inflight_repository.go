package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

const inflightPrefix = "lms:inflight:"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisInFlight claims intent keys with SET NX PX so duplicate submissions
// are rejected across gateway replicas.
type RedisInFlight struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisInFlight constructs the guard. ttl bounds how long a crashed
// request can hold a key.
func NewRedisInFlight(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisInFlight {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisInFlight{client: client, ttl: ttl, logger: logger}
}

// Acquire claims key or returns ErrInFlight.
func (g *RedisInFlight) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := inflightPrefix + key
	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		unavailable := appErrors.ErrRemoteUnavailable
		return nil, appErrors.Wrap(err, unavailable.Code, unavailable.Status, "in-flight guard unavailable for "+redisKey)
	}
	if !ok {
		return nil, appErrors.ErrInFlight
	}
	return func() {
		// The request context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, g.client, []string{redisKey}, token).Err(); err != nil && err != redis.Nil {
			g.logger.Warn("release in-flight key failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
