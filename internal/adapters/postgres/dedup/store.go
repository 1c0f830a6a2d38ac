package dedup

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
)

// Store is a Postgres implementation of dedup.Store backed by reminder_markers.
// Expiry is evaluated against the injected clock, not the database clock.
type Store struct {
	pool *pgxpool.Pool
	clk  clockport.Clock
}

func NewStore(pool *pgxpool.Pool, clk clockport.Clock) *Store {
	return &Store{pool: pool, clk: clk}
}

func (s *Store) Get(ctx context.Context, key string) (bool, error) {
	if s.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	var one int
	err := s.pool.QueryRow(ctx, `
		SELECT 1 FROM reminder_markers WHERE key = $1 AND expires_at > $2
	`, key, s.clk.Now().UTC()).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, ttl time.Duration) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reminder_markers (key, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`, key, s.clk.Now().Add(ttl).UTC())
	return err
}

// Purge deletes expired markers and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	if s.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	ct, err := s.pool.Exec(ctx, `DELETE FROM reminder_markers WHERE expires_at <= $1`, s.clk.Now().UTC())
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
