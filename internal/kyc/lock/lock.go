// Package lock serializes writes to one application across concurrent
// requests.
package lock

import (
	"context"
	"time"

	"dsakyc/pkg/platform/sentinel"
)

// DefaultWait bounds how long Acquire waits for a busy key.
const DefaultWait = 5 * time.Second

// ErrLockHeld is returned when the key stays busy for the whole wait.
var ErrLockHeld = sentinel.ErrLockHeld

// Locker hands out exclusive per-key locks. The returned release func must be
// called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
