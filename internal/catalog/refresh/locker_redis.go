package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseTimeout = 5 * time.Second

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-flight lock shared by every instance pointed at
// the same Redis. The TTL bounds how long a crashed holder blocks others.
type RedisLocker struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisLocker(client redis.UniversalClient, key string, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{client: client, key: key, ttl: ttl, logger: logger}
}

func (l *RedisLocker) TryAcquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire refresh lock: %w", err)
	}
	if !ok {
		return nil, ErrRefreshInProgress
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(rctx, l.client, []string{l.key}, token).Err(); err != nil {
				l.logger.WarnContext(rctx, "failed to release refresh lock",
					"key", l.key,
					"error", err,
				)
			}
		})
	}
	return release, nil
}
