package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/luxeladies/community-api/internal/platform/log"
	"github.com/luxeladies/community-api/internal/ports/out/runlock"
)

// Runner is one reminder scan.
type Runner interface {
	RunOnce(ctx context.Context) (Report, error)
}

// Scheduler fires a Runner on a fixed interval. Fires that find the run-lock
// held are skipped, never queued.
type Scheduler struct {
	job      Runner
	lock     runlock.Locker
	interval time.Duration
	logger   *log.Logger
}

func NewScheduler(job Runner, lock runlock.Locker, interval time.Duration, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Discard()
	}
	return &Scheduler{job: job, lock: lock, interval: interval, logger: logger}
}

// Run fires once immediately and then on every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("reminder interval must be positive")
	}
	s.logger.WithField("interval", s.interval.String()).Info("reminder scheduler started")
	defer s.logger.Info("reminder scheduler stopped")

	s.fire(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

// Tick performs one guarded run. ran is false when another run holds the lock.
func (s *Scheduler) Tick(ctx context.Context) (rep Report, ran bool, err error) {
	release, ok, err := s.lock.TryLock(ctx)
	if err != nil {
		return Report{}, false, err
	}
	if !ok {
		return Report{}, false, nil
	}
	defer release()

	rep, err = s.job.RunOnce(ctx)
	return rep, true, err
}

func (s *Scheduler) fire(ctx context.Context) {
	started := time.Now()
	rep, ran, err := s.Tick(ctx)
	fields := log.Fields{"duration_ms": time.Since(started).Milliseconds()}
	switch {
	case err != nil && ctx.Err() != nil:
		return
	case err != nil:
		s.logger.WithFields(fields).WithError(err).Error("reminder run failed")
	case !ran:
		s.logger.WithFields(fields).Debug("reminder run skipped; previous run still active")
	default:
		fields["events"] = rep.Events
		fields["scanned"] = rep.Scanned
		fields["sent"] = rep.Sent
		fields["skipped"] = rep.Skipped
		fields["already_sent"] = rep.AlreadySent
		fields["failed"] = rep.Failed
		entry := s.logger.WithFields(fields)
		if rep.Sent > 0 || rep.Failed > 0 {
			entry.Info("reminder run finished")
		} else {
			entry.Debug("reminder run finished")
		}
	}
}
