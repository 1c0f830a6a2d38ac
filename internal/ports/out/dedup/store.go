package dedup

import (
	"context"
	"time"
)

// Store records short-lived markers that suppress repeated sends.
// Keys are opaque strings chosen by the caller.
type Store interface {
	// Get reports whether an unexpired marker exists for key.
	Get(ctx context.Context, key string) (bool, error)
	// Set writes (or refreshes) the marker for key, expiring after ttl.
	Set(ctx context.Context, key string, ttl time.Duration) error
}
