package runlock

import "context"

// Locker guards a task so that at most one execution runs at a time.
type Locker interface {
	// TryLock acquires the lock without waiting. When ok is false another run holds it.
	// The returned release func must be called exactly once after a successful acquire.
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}
