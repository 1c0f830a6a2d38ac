// Command remind runs a single reminder pass and exits. It takes the same
// run lock as the scheduler inside the api process, so it is safe to call
// from cron alongside a running server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/luxeladies/community-api/internal/adapters/mail"
	"github.com/luxeladies/community-api/internal/adapters/storage"
	"github.com/luxeladies/community-api/internal/app/notify"
	"github.com/luxeladies/community-api/internal/app/reminders"
	platformclock "github.com/luxeladies/community-api/internal/platform/clock"
	"github.com/luxeladies/community-api/internal/platform/config"
	"github.com/luxeladies/community-api/internal/platform/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	logger, err := log.New(cfg.LogConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("reminder run failed")
	}
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	clk := platformclock.NewSystemClock()

	repos, err := storage.Open(ctx, cfg.StorageConfig, clk)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repos.Close()

	transport, err := mail.NewTransport(cfg.MailConfig, logger)
	if err != nil {
		return err
	}
	renderer, err := notify.NewRenderer(notify.RendererOptions{
		Locale:   cfg.MailLocale,
		Dir:      cfg.MailTemplatesDir,
		SiteName: cfg.SiteName,
		Location: cfg.Location(),
	})
	if err != nil {
		return fmt.Errorf("load mail templates: %w", err)
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.MailRatePerSecond), cfg.MailBurst)
	dispatcher := notify.NewDispatcher(renderer, transport, cfg.MailFrom, limiter, logger)

	job := reminders.NewJob(reminders.JobDeps{
		Events:        repos.Events,
		Registrations: repos.Registrations,
		Members:       repos.Members,
		Markers:       repos.Markers,
		Mail:          dispatcher,
		Clock:         clk,
		EURRate:       decimal.NewFromFloat(cfg.EventsEURRate),
		Logger:        logger,
	})
	scheduler := reminders.NewScheduler(job, repos.RunLock, cfg.ReminderInterval, logger)

	rep, ran, err := scheduler.Tick(ctx)
	if err != nil {
		return err
	}
	if !ran {
		logger.Info("another reminder run holds the lock; nothing to do")
		return nil
	}
	logger.WithFields(log.Fields{
		"events":       rep.Events,
		"scanned":      rep.Scanned,
		"sent":         rep.Sent,
		"skipped":      rep.Skipped,
		"already_sent": rep.AlreadySent,
		"failed":       rep.Failed,
	}).Info("reminder run complete")
	return nil
}
