package lock

import (
	"context"
	"errors"
	"time"

	platformsync "dsakyc/pkg/platform/sync"
)

// LocalLocker locks each key within one process. Suitable for single-instance
// deployments and tests.
type LocalLocker struct {
	mu   *platformsync.ShardedMutex
	wait time.Duration
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &LocalLocker{mu: platformsync.NewShardedMutex(), wait: wait}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	if err := l.mu.LockContext(waitCtx, key); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrLockHeld
		}
		return nil, err
	}
	return func() { l.mu.Unlock(key) }, nil
}
