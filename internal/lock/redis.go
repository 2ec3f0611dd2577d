package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const (
	defaultKeyPrefix  = "license:lock:"
	defaultRetryDelay = 25 * time.Millisecond
	releaseTimeout    = 2 * time.Second
)

// RedisLocker is a Locker shared by every instance pointing at the same redis.
// The ttl bounds how long a crashed holder can block a key.
type RedisLocker struct {
	client     *redis.Client
	script     *redis.Script
	ttl        time.Duration
	retryDelay time.Duration
	keyPrefix  string
	logger     *zap.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("lock client not configured")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	return &RedisLocker{
		client:     client,
		script:     redis.NewScript(lockReleaseScript),
		ttl:        ttl,
		retryDelay: defaultRetryDelay,
		keyPrefix:  defaultKeyPrefix,
		logger:     logger.Named("RedisLocker"),
	}, nil
}

var _ Locker = (*RedisLocker)(nil)

func (l *RedisLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	lockKey := l.keyPrefix + key
	token := uuid.NewString()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			l.logger.Error("Failed to acquire redis lock", zap.String("lock_key", lockKey), zap.Error(err))
			return nil, fmt.Errorf("%w: acquire lock: %v", ierr.ErrDependency, err)
		}
		if ok {
			return l.unlockFunc(lockKey, token), nil
		}

		timer.Reset(l.retryDelay)
	}
}

func (l *RedisLocker) unlockFunc(lockKey, token string) UnlockFunc {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := l.script.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
				l.logger.Warn("Failed to release redis lock, it will expire after ttl",
					zap.String("lock_key", lockKey),
					zap.Duration("ttl", l.ttl),
					zap.Error(err),
				)
			}
		})
	}
}
