package registrationrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/luxeladies/community-api/internal/adapters/postgres"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
)

// Repo is a Postgres implementation of registrationrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const registrationSelect = `
	SELECT
		r.id,
		r.event_id,
		r.member_id,
		r.full_name,
		r.child_name,
		r.child_age,
		r.status,
		r.created_at,
		r.updated_at
	FROM event_registrations r
`

func (r *Repo) Create(ctx context.Context, reg domain.EventRegistration) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(reg.ID))
	if err != nil {
		return fmt.Errorf("invalid registration id: %w", err)
	}
	eventID, err := uuid.Parse(string(reg.EventID))
	if err != nil {
		return fmt.Errorf("invalid event id: %w", err)
	}
	memberID, err := uuid.Parse(string(reg.MemberID))
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO event_registrations (
			id,
			event_id,
			member_id,
			full_name,
			child_name,
			child_age,
			status,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		id,
		eventID,
		memberID,
		reg.FullName,
		reg.ChildName,
		reg.ChildAge,
		string(reg.Status),
		reg.CreatedAt.UTC(),
		reg.UpdatedAt.UTC(),
	)
	if err != nil {
		// Both the pair constraint and the primary key mean "already registered".
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return registrationrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id domain.RegistrationID, status domain.RegistrationStatus, at time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return registrationrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE event_registrations
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, uid, string(status), at.UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return registrationrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.RegistrationID) (domain.EventRegistration, error) {
	if r.pool == nil {
		return domain.EventRegistration{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.EventRegistration{}, registrationrepo.ErrNotFound
	}
	return scanRegistration(r.pool.QueryRow(ctx, registrationSelect+` WHERE r.id = $1`, uid))
}

func (r *Repo) GetByEventAndMember(ctx context.Context, eventID domain.EventID, memberID domain.MemberID) (domain.EventRegistration, error) {
	if r.pool == nil {
		return domain.EventRegistration{}, errors.New("nil postgres pool")
	}
	eid, err := uuid.Parse(string(eventID))
	if err != nil {
		return domain.EventRegistration{}, registrationrepo.ErrNotFound
	}
	mid, err := uuid.Parse(string(memberID))
	if err != nil {
		return domain.EventRegistration{}, registrationrepo.ErrNotFound
	}
	return scanRegistration(r.pool.QueryRow(ctx, registrationSelect+` WHERE r.event_id = $1 AND r.member_id = $2`, eid, mid))
}

func (r *Repo) ListByEvents(ctx context.Context, eventIDs []domain.EventID, status domain.RegistrationStatus) ([]domain.EventRegistration, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	if len(eventIDs) == 0 {
		return []domain.EventRegistration{}, nil
	}
	ids := make([]uuid.UUID, 0, len(eventIDs))
	for _, id := range eventIDs {
		uid, err := uuid.Parse(string(id))
		if err != nil {
			continue
		}
		ids = append(ids, uid)
	}
	return r.list(ctx, registrationSelect+`
		WHERE r.event_id = ANY($1) AND r.status = $2
		ORDER BY r.created_at ASC, r.id::text ASC
	`, ids, string(status))
}

func (r *Repo) ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.EventRegistration, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(memberID))
	if err != nil {
		return []domain.EventRegistration{}, nil
	}
	return r.list(ctx, registrationSelect+`
		WHERE r.member_id = $1
		ORDER BY r.created_at ASC, r.id::text ASC
	`, uid)
}

func (r *Repo) ListByStatus(ctx context.Context, status domain.RegistrationStatus) ([]domain.EventRegistration, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	return r.list(ctx, registrationSelect+`
		WHERE r.status = $1
		ORDER BY r.created_at DESC, r.id::text ASC
	`, string(status))
}

func (r *Repo) CountByStatus(ctx context.Context) (map[domain.RegistrationStatus]int, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM event_registrations GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.RegistrationStatus]int{
		domain.RegistrationPending:  0,
		domain.RegistrationApproved: 0,
		domain.RegistrationRejected: 0,
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.RegistrationStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountByEvent(ctx context.Context, eventID domain.EventID, status domain.RegistrationStatus) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(eventID))
	if err != nil {
		return 0, nil
	}
	var n int
	err = r.pool.QueryRow(ctx, `
		SELECT count(*) FROM event_registrations WHERE event_id = $1 AND status = $2
	`, uid, string(status)).Scan(&n)
	return n, err
}

func (r *Repo) list(ctx context.Context, sql string, args ...any) ([]domain.EventRegistration, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.EventRegistration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRegistration(row interface {
	Scan(dest ...any) error
}) (domain.EventRegistration, error) {
	var (
		id        uuid.UUID
		eventID   uuid.UUID
		memberID  uuid.UUID
		reg       domain.EventRegistration
		status    string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&id,
		&eventID,
		&memberID,
		&reg.FullName,
		&reg.ChildName,
		&reg.ChildAge,
		&status,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EventRegistration{}, registrationrepo.ErrNotFound
		}
		return domain.EventRegistration{}, err
	}
	reg.ID = domain.RegistrationID(id.String())
	reg.EventID = domain.EventID(eventID.String())
	reg.MemberID = domain.MemberID(memberID.String())
	reg.Status = domain.RegistrationStatus(status)
	reg.CreatedAt = createdAt.UTC()
	reg.UpdatedAt = updatedAt.UTC()
	return reg, nil
}
