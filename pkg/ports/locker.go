package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock acquired through RunLocker.
type UnlockFunc func(ctx context.Context) error

// RunLocker gives one run exclusive ownership of a shared resource, such as
// the streams of a sink shared between hosts.
type RunLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is done.
	// The returned UnlockFunc must be called to release it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
