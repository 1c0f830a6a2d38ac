package runlock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultKey is the advisory lock key shared by every reminder runner.
const DefaultKey int64 = 0x6576_7265_6d69_6e64

// Lock is a cross-process run-lock built on a session-level Postgres advisory lock.
// The lock lives on one pooled connection until release is called.
type Lock struct {
	pool *pgxpool.Pool
	key  int64
}

func New(pool *pgxpool.Pool, key int64) *Lock {
	return &Lock{pool: pool, key: key}
}

func (l *Lock) TryLock(ctx context.Context) (func(), bool, error) {
	if l.pool == nil {
		return nil, false, errors.New("nil postgres pool")
	}
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, err
	}

	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, err
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	release := func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock($1)`, l.key); err != nil {
			// A connection in an unknown state must not go back to the pool holding the lock.
			_ = conn.Conn().Close(unlockCtx)
		}
		conn.Release()
	}
	return release, true, nil
}
