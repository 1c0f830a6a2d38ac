// Package storage opens the repositories for the configured backend.
package storage

import (
	"context"
	"fmt"

	"github.com/luxeladies/community-api/internal/adapters/memory"
	memrunlock "github.com/luxeladies/community-api/internal/adapters/memory/runlock"
	postgres "github.com/luxeladies/community-api/internal/adapters/postgres"
	pgdedup "github.com/luxeladies/community-api/internal/adapters/postgres/dedup"
	pgeventrepo "github.com/luxeladies/community-api/internal/adapters/postgres/eventrepo"
	pgmemberrepo "github.com/luxeladies/community-api/internal/adapters/postgres/memberrepo"
	pgquestionnairerepo "github.com/luxeladies/community-api/internal/adapters/postgres/questionnairerepo"
	pgregistrationrepo "github.com/luxeladies/community-api/internal/adapters/postgres/registrationrepo"
	pgrunlock "github.com/luxeladies/community-api/internal/adapters/postgres/runlock"
	"github.com/luxeladies/community-api/internal/adapters/sqlite"
	"github.com/luxeladies/community-api/internal/platform/config"
	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
	dedupport "github.com/luxeladies/community-api/internal/ports/out/dedup"
	eventrepoport "github.com/luxeladies/community-api/internal/ports/out/eventrepo"
	memberrepoport "github.com/luxeladies/community-api/internal/ports/out/memberrepo"
	questionnairerepoport "github.com/luxeladies/community-api/internal/ports/out/questionnairerepo"
	registrationrepoport "github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
	runlockport "github.com/luxeladies/community-api/internal/ports/out/runlock"
)

// Repos is everything the services persist through.
type Repos struct {
	Backend        string
	Members        memberrepoport.Repository
	Questionnaires questionnairerepoport.Repository
	Events         eventrepoport.Repository
	Registrations  registrationrepoport.Repository
	Markers        dedupport.Store
	// RunLock keeps reminder runs from overlapping. Only the postgres lock
	// spans processes.
	RunLock runlockport.Locker

	closers []func()
}

// Close releases connections in reverse order of opening.
func (r *Repos) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// Open connects to the backend named in cfg. Postgres is migrated on open;
// SQLite is auto-migrated by sqlite.Open.
func Open(ctx context.Context, cfg config.StorageConfig, clk clockport.Clock) (*Repos, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		store := memory.NewStore(clk)
		return &Repos{
			Backend:        config.BackendMemory,
			Members:        store.Members,
			Questionnaires: store.Questionnaires,
			Events:         store.Events,
			Registrations:  store.Registrations,
			Markers:        store.Markers,
			RunLock:        memrunlock.New(),
		}, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.DBMaxConns})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Repos{
			Backend:        config.BackendPostgres,
			Members:        pgmemberrepo.NewRepo(pool),
			Questionnaires: pgquestionnairerepo.NewRepo(pool),
			Events:         pgeventrepo.NewRepo(pool),
			Registrations:  pgregistrationrepo.NewRepo(pool),
			Markers:        pgdedup.NewStore(pool, clk),
			RunLock:        pgrunlock.New(pool, pgrunlock.DefaultKey),
			closers:        []func(){pool.Close},
		}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Repos{
			Backend:        config.BackendSQLite,
			Members:        sqlite.NewMemberRepo(db),
			Questionnaires: sqlite.NewQuestionnaireRepo(db),
			Events:         sqlite.NewEventRepo(db),
			Registrations:  sqlite.NewRegistrationRepo(db),
			Markers:        sqlite.NewMarkerStore(db, clk),
			RunLock:        memrunlock.New(),
			closers:        []func(){func() { _ = sqlite.Close(db) }},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
