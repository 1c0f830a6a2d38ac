package runlock

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Lock is an in-process run-lock backed by a weighted semaphore of size one.
type Lock struct {
	sem *semaphore.Weighted
}

func New() *Lock {
	return &Lock{sem: semaphore.NewWeighted(1)}
}

func (l *Lock) TryLock(ctx context.Context) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !l.sem.TryAcquire(1) {
		return nil, false, nil
	}
	return func() { l.sem.Release(1) }, true, nil
}
