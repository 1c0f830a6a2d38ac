package reminders

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luxeladies/community-api/internal/adapters/memory/runlock"
)

type blockingRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (r *blockingRunner) RunOnce(ctx context.Context) (Report, error) {
	r.calls.Add(1)
	r.started <- struct{}{}
	select {
	case <-r.release:
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
	return Report{Sent: 1}, nil
}

func TestScheduler_OverlappingTickIsSkipped(t *testing.T) {
	t.Parallel()

	runner := newBlockingRunner()
	s := NewScheduler(runner, runlock.New(), time.Minute, nil)
	ctx := context.Background()

	done := make(chan Report, 1)
	go func() {
		rep, _, _ := s.Tick(ctx)
		done <- rep
	}()
	<-runner.started

	if _, ran, err := s.Tick(ctx); err != nil || ran {
		t.Fatalf("Tick() while running=(ran=%v, err=%v), want skipped", ran, err)
	}
	close(runner.release)
	if rep := <-done; rep.Sent != 1 {
		t.Fatalf("first Tick() report=%+v", rep)
	}

	if _, ran, err := s.Tick(ctx); err != nil || !ran {
		t.Fatalf("Tick() after release=(ran=%v, err=%v), want ran", ran, err)
	}
	if n := runner.calls.Load(); n != 2 {
		t.Fatalf("RunOnce calls=%d, want 2", n)
	}
}

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunOnce(context.Context) (Report, error) {
	r.calls.Add(1)
	return Report{}, r.err
}

func TestScheduler_RunFiresImmediatelyAndStops(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{err: errors.New("transient")}
	s := NewScheduler(runner, runlock.New(), time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for runner.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Run() did not fire immediately")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() err=%v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run() did not stop after cancel")
	}
	if n := runner.calls.Load(); n != 1 {
		t.Fatalf("RunOnce calls=%d, want 1", n)
	}
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&countingRunner{}, runlock.New(), 0, nil)
	if err := s.Run(context.Background()); err == nil {
		t.Fatalf("Run() err=nil, want interval error")
	}
}
