package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/luxeladies/community-api/internal/adapters/discord"
	"github.com/luxeladies/community-api/internal/adapters/httpapi"
	"github.com/luxeladies/community-api/internal/adapters/mail"
	"github.com/luxeladies/community-api/internal/adapters/storage"
	"github.com/luxeladies/community-api/internal/app/admin"
	"github.com/luxeladies/community-api/internal/app/events"
	"github.com/luxeladies/community-api/internal/app/members"
	"github.com/luxeladies/community-api/internal/app/notify"
	"github.com/luxeladies/community-api/internal/app/registrations"
	"github.com/luxeladies/community-api/internal/app/reminders"
	"github.com/luxeladies/community-api/internal/platform/auth/session"
	platformclock "github.com/luxeladies/community-api/internal/platform/clock"
	"github.com/luxeladies/community-api/internal/platform/config"
	"github.com/luxeladies/community-api/internal/platform/log"
	"github.com/luxeladies/community-api/internal/ports/out/opsnotify"
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
		logger.WithError(err).Fatal("api exited")
	}
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	clk := platformclock.NewSystemClock()

	repos, err := storage.Open(ctx, cfg.StorageConfig, clk)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repos.Close()
	logger.WithField("backend", repos.Backend).Info("storage ready")

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

	var ops opsnotify.Notifier = opsnotify.Nop{}
	if cfg.DiscordBotToken != "" && cfg.DiscordChannelID != "" {
		n, err := discord.NewSessionNotifier(cfg.DiscordBotToken, cfg.DiscordChannelID)
		if err != nil {
			return err
		}
		ops = n
	}

	eurRate := decimal.NewFromFloat(cfg.EventsEURRate)

	memberSvc := members.NewService(members.Deps{
		Members:        repos.Members,
		Questionnaires: repos.Questionnaires,
		Interests:      repos.Events,
		Clock:          clk,
		Mail:           dispatcher,
		Ops:            ops,
		Logger:         logger,
	})
	eventSvc := events.NewService(events.Deps{
		Events:         repos.Events,
		Registrations:  repos.Registrations,
		Members:        repos.Members,
		Questionnaires: repos.Questionnaires,
		Clock:          clk,
		Location:       cfg.Location(),
		HubCity:        cfg.HubCity,
		EURRate:        eurRate,
		Logger:         logger,
	})
	regSvc := registrations.NewService(registrations.Deps{
		Members:       repos.Members,
		Events:        repos.Events,
		Registrations: repos.Registrations,
		Clock:         clk,
		Mail:          dispatcher,
		Ops:           ops,
		Logger:        logger,
	})
	adminSvc := admin.NewService(admin.Deps{
		Members:       repos.Members,
		Events:        repos.Events,
		Registrations: repos.Registrations,
	})

	if cfg.HasSuperuserBootstrap() {
		m, created, err := memberSvc.EnsureSuperuser(ctx, cfg.AdminHandle, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap superuser: %w", err)
		}
		logger.WithField("member_id", m.ID).WithField("created", created).Info("superuser ready")
	}

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		// Validate allows an empty secret only on the memory backend.
		sessionSecret = "dev-insecure-secret"
		logger.Warn("SESSION_SECRET is empty; using an insecure development secret")
	}
	sessions := session.NewManager(session.Config{
		Secret: sessionSecret,
		Issuer: cfg.SessionIssuer,
		TTL:    cfg.SessionTTL,
	}, clk)

	handler := httpapi.NewRouter(&httpapi.Server{
		Members:       memberSvc,
		Registrations: regSvc,
		Events:        eventSvc,
		Admin:         adminSvc,
		Sessions:      sessions,
		CookieSecure:  cfg.SessionCookieSecure,
		Location:      cfg.Location(),
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	if cfg.RemindersEnabled {
		job := reminders.NewJob(reminders.JobDeps{
			Events:        repos.Events,
			Registrations: repos.Registrations,
			Members:       repos.Members,
			Markers:       repos.Markers,
			Mail:          dispatcher,
			Clock:         clk,
			EURRate:       eurRate,
			Logger:        logger,
		})
		scheduler := reminders.NewScheduler(job, repos.RunLock, cfg.ReminderInterval, logger)
		g.Go(func() error { return scheduler.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
