package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// AcquireLock takes an advisory lock, returns false if already held.
	// The token must be presented again to release.
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// ReleaseLock releases the lock only if token still holds it.
	ReleaseLock(ctx context.Context, key, token string) error
}
