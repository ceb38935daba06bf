package adapter

import (
	"context"
	"time"
)

// Locker is a best-effort advisory lock used to serialize the two
// fulfillment triggers (webhook and poll) per order. The hard guarantee of
// at-most-one code per order is the store's conditional write; the lock only
// narrows the duplicate-work window.
type Locker interface {
	// TryLock acquires key for ttl and returns an unlock token, or
	// domain.ErrLockHeld when another holder wins.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
