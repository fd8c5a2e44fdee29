package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"interview-eval-go/internal/platform/config"
	apperrors "interview-eval-go/internal/platform/errors"
)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis constructs a redis-backed run locker.
func NewRedis(cfg config.RedisConfig) (Locker, error) {
	const op = "runlock.redis"

	if cfg.Addr == "" {
		return nil, apperrors.New(apperrors.KindConfig, op, "redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindBootstrap, op, "redis ping failed", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "interview:run:"
	}

	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisLocker{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}, nil
}

func (l *redisLocker) key(userID string, questionNum int) string {
	return l.prefix + lockKey(userID, questionNum)
}

func (l *redisLocker) Acquire(ctx context.Context, userID string, questionNum int, runID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(userID, questionNum), runID, l.ttl).Result()
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindTransient, "runlock.acquire", "redis setnx failed", err)
	}
	return ok, nil
}

// Release deletes the lock only when this run still holds it, so a
// slow run cannot release a successor's lock after TTL expiry.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *redisLocker) Release(ctx context.Context, userID string, questionNum int, runID string) error {
	err := releaseScript.Run(ctx, l.client, []string{l.key(userID, questionNum)}, runID).Err()
	if err != nil && err != redis.Nil {
		return apperrors.Wrap(apperrors.KindTransient, "runlock.release",
			fmt.Sprintf("release %s:%d", userID, questionNum), err)
	}
	return nil
}

func (l *redisLocker) Close(ctx context.Context) error {
	return l.client.Close()
}
