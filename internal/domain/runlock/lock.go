package runlock

import (
	"context"
	"fmt"
	"time"

	"interview-eval-go/internal/platform/config"
)

// Locker guards (user, question) so at most one evaluation run is in
// flight per answer. Acquire reports false when the run is already
// held elsewhere; Release is idempotent.
type Locker interface {
	Acquire(ctx context.Context, userID string, questionNum int, runID string) (bool, error)
	Release(ctx context.Context, userID string, questionNum int, runID string) error
	Close(ctx context.Context) error
}

func lockKey(userID string, questionNum int) string {
	return fmt.Sprintf("%s:%d", userID, questionNum)
}

// New picks the redis locker when configured, otherwise the in-process
// fallback.
func New(cfg config.RedisConfig) (Locker, error) {
	if cfg.Enabled {
		return NewRedis(cfg)
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return NewMemory(ttl), nil
}
