package eventrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	postgres "github.com/luxeladies/community-api/internal/adapters/postgres"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/eventrepo"
)

// Repo is a Postgres implementation of eventrepo.Repository.
// Prices are stored as integer cents.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const eventSelect = `
	SELECT
		e.id,
		e.title,
		e.description,
		e.starts_at,
		e.city,
		e.location,
		e.kid_friendly,
		e.image_ref,
		e.capacity,
		e.price_cents,
		e.created_at,
		e.updated_at,
		COALESCE(
			(SELECT array_agg(ei.interest_id::text ORDER BY ei.interest_id)
			 FROM event_interests ei
			 WHERE ei.event_id = e.id),
			'{}'
		)
	FROM events e
`

func (r *Repo) Create(ctx context.Context, e domain.Event) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(e.ID))
	if err != nil {
		return fmt.Errorf("invalid event id: %w", err)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO events (
				id,
				title,
				description,
				starts_at,
				city,
				location,
				kid_friendly,
				image_ref,
				capacity,
				price_cents,
				created_at,
				updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			id,
			e.Title,
			e.Description,
			e.StartsAt.UTC(),
			e.City,
			e.Location,
			e.KidFriendly,
			e.ImageRef,
			e.Capacity,
			toCents(e.Price),
			e.CreatedAt.UTC(),
			e.UpdatedAt.UTC(),
		)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return eventrepo.ErrAlreadyExists
			}
			return err
		}
		return replaceInterests(ctx, tx, id, e.InterestIDs)
	})
}

func (r *Repo) Save(ctx context.Context, e domain.Event) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(e.ID))
	if err != nil {
		return eventrepo.ErrNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE events
			SET title = $2,
			    description = $3,
			    starts_at = $4,
			    city = $5,
			    location = $6,
			    kid_friendly = $7,
			    image_ref = $8,
			    capacity = $9,
			    price_cents = $10,
			    updated_at = $11
			WHERE id = $1
		`,
			id,
			e.Title,
			e.Description,
			e.StartsAt.UTC(),
			e.City,
			e.Location,
			e.KidFriendly,
			e.ImageRef,
			e.Capacity,
			toCents(e.Price),
			e.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return eventrepo.ErrNotFound
		}
		return replaceInterests(ctx, tx, id, e.InterestIDs)
	})
}

func (r *Repo) GetByID(ctx context.Context, id domain.EventID) (domain.Event, error) {
	if r.pool == nil {
		return domain.Event{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Event{}, eventrepo.ErrNotFound
	}
	return scanEvent(r.pool.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, uid))
}

func (r *Repo) List(ctx context.Context, w eventrepo.Window) ([]domain.Event, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	var (
		where []string
		args  []any
	)
	if w.After != nil {
		args = append(args, w.After.UTC())
		where = append(where, fmt.Sprintf("e.starts_at > $%d", len(args)))
	}
	if w.Until != nil {
		args = append(args, w.Until.UTC())
		where = append(where, fmt.Sprintf("e.starts_at <= $%d", len(args)))
	}
	sql := eventSelect
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	if w.Descending {
		sql += ` ORDER BY e.starts_at DESC, e.id::text ASC`
	} else {
		sql += ` ORDER BY e.starts_at ASC, e.id::text ASC`
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CreateInterest(ctx context.Context, i domain.Interest) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(i.ID))
	if err != nil {
		return fmt.Errorf("invalid interest id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO interests (id, name) VALUES ($1, $2)`, id, i.Name)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return eventrepo.ErrInterestExists
		}
		return err
	}
	return nil
}

func (r *Repo) ListInterests(ctx context.Context) ([]domain.Interest, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM interests ORDER BY lower(name) ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Interest, 0)
	for rows.Next() {
		var (
			id   uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out = append(out, domain.Interest{ID: domain.InterestID(id.String()), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// --- helpers ---

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func replaceInterests(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, ids []domain.InterestID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM event_interests WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	for _, id := range ids {
		iid, err := uuid.Parse(string(id))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO event_interests (event_id, interest_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, eventID, iid); err != nil {
			return err
		}
	}
	return nil
}

func scanEvent(row interface {
	Scan(dest ...any) error
}) (domain.Event, error) {
	var (
		id          uuid.UUID
		e           domain.Event
		startsAt    time.Time
		priceCents  int64
		createdAt   time.Time
		updatedAt   time.Time
		interestIDs []string
	)
	if err := row.Scan(
		&id,
		&e.Title,
		&e.Description,
		&startsAt,
		&e.City,
		&e.Location,
		&e.KidFriendly,
		&e.ImageRef,
		&e.Capacity,
		&priceCents,
		&createdAt,
		&updatedAt,
		&interestIDs,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, eventrepo.ErrNotFound
		}
		return domain.Event{}, err
	}
	e.ID = domain.EventID(id.String())
	e.StartsAt = startsAt.UTC()
	e.Price = fromCents(priceCents)
	e.CreatedAt = createdAt.UTC()
	e.UpdatedAt = updatedAt.UTC()
	e.InterestIDs = make([]domain.InterestID, 0, len(interestIDs))
	for _, iid := range interestIDs {
		e.InterestIDs = append(e.InterestIDs, domain.InterestID(iid))
	}
	return e, nil
}
