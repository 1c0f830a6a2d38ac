package memberrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/luxeladies/community-api/internal/adapters/postgres"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
)

// Repo is a Postgres implementation of memberrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const memberColumns = `
	m.id,
	m.handle,
	m.email,
	m.password_hash,
	m.first_name,
	m.last_name,
	m.age,
	m.city,
	m.studies,
	m.education_place,
	m.works,
	m.work_place,
	m.about,
	m.avatar_ref,
	m.is_approved,
	m.is_active,
	m.is_superuser,
	m.created_at,
	m.updated_at
`

func (r *Repo) Create(ctx context.Context, m memberrepo.Member, settings domain.NotificationSettings) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO members (
				id,
				handle,
				email,
				password_hash,
				first_name,
				last_name,
				age,
				city,
				studies,
				education_place,
				works,
				work_place,
				about,
				avatar_ref,
				is_approved,
				is_active,
				is_superuser,
				created_at,
				updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`,
			id,
			m.Handle,
			m.Email,
			m.PasswordHash,
			m.FirstName,
			m.LastName,
			m.Age,
			m.City,
			m.Studies,
			m.EducationPlace,
			m.Works,
			m.WorkPlace,
			m.About,
			m.AvatarRef,
			m.IsApproved,
			m.IsActive,
			m.IsSuperuser,
			m.CreatedAt.UTC(),
			m.UpdatedAt.UTC(),
		)
		if err != nil {
			return mapUniqueViolation(err, memberrepo.ErrAlreadyExists)
		}

		settings.MemberID = m.ID
		return upsertSettings(ctx, tx, id, settings)
	})
}

func (r *Repo) Update(ctx context.Context, m memberrepo.Member) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return memberrepo.ErrNotFound
	}

	ct, err := r.pool.Exec(ctx, `
		UPDATE members
		SET handle = $2,
		    email = $3,
		    password_hash = $4,
		    first_name = $5,
		    last_name = $6,
		    age = $7,
		    city = $8,
		    studies = $9,
		    education_place = $10,
		    works = $11,
		    work_place = $12,
		    about = $13,
		    avatar_ref = $14,
		    is_approved = $15,
		    is_active = $16,
		    is_superuser = $17,
		    updated_at = $18
		WHERE id = $1
	`,
		id,
		m.Handle,
		m.Email,
		m.PasswordHash,
		m.FirstName,
		m.LastName,
		m.Age,
		m.City,
		m.Studies,
		m.EducationPlace,
		m.Works,
		m.WorkPlace,
		m.About,
		m.AvatarRef,
		m.IsApproved,
		m.IsActive,
		m.IsSuperuser,
		m.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapUniqueViolation(err, err)
	}
	if ct.RowsAffected() == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for settings, questionnaires and registrations.
func (r *Repo) Delete(ctx context.Context, id domain.MemberID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return memberrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	if r.pool == nil {
		return memberrepo.Member{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members m WHERE m.id = $1`, uid)
	return scanMember(row)
}

func (r *Repo) GetByLogin(ctx context.Context, login string) (memberrepo.Member, error) {
	if r.pool == nil {
		return memberrepo.Member{}, errors.New("nil postgres pool")
	}
	login = strings.TrimSpace(login)
	if login == "" {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	// A handle match wins over an email match.
	row := r.pool.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM members m
		WHERE lower(m.handle) = lower($1)
		   OR (m.email <> '' AND lower(m.email) = lower($1))
		ORDER BY (lower(m.handle) = lower($1)) DESC
		LIMIT 1
	`, login)
	return scanMember(row)
}

func (r *Repo) List(ctx context.Context, f memberrepo.ListFilter) ([]memberrepo.Member, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	var (
		where []string
		args  []any
	)
	if f.Approved != nil {
		args = append(args, *f.Approved)
		where = append(where, fmt.Sprintf("m.is_approved = $%d", len(args)))
	}
	if f.ActiveOnly {
		where = append(where, "m.is_active = true")
	}
	if f.ExcludeSuperusers {
		where = append(where, "m.is_superuser = false")
	}
	sql := `SELECT ` + memberColumns + ` FROM members m`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY m.created_at ASC, m.id::text ASC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]memberrepo.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetSettings(ctx context.Context, id domain.MemberID) (domain.NotificationSettings, error) {
	if r.pool == nil {
		return domain.NotificationSettings{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.NotificationSettings{}, memberrepo.ErrNotFound
	}
	s := domain.NotificationSettings{MemberID: id}
	err = r.pool.QueryRow(ctx, `
		SELECT
			email_event_reminders,
			email_event_status_changes,
			email_recommendations,
			email_profile_changes,
			email_questionnaire_changes,
			email_news
		FROM notification_settings
		WHERE member_id = $1
	`, uid).Scan(
		&s.EmailEventReminders,
		&s.EmailEventStatusChanges,
		&s.EmailRecommendations,
		&s.EmailProfileChanges,
		&s.EmailQuestionnaireChanges,
		&s.EmailNews,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotificationSettings{}, memberrepo.ErrNotFound
		}
		return domain.NotificationSettings{}, err
	}
	return s, nil
}

func (r *Repo) SaveSettings(ctx context.Context, s domain.NotificationSettings) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(s.MemberID))
	if err != nil {
		return memberrepo.ErrNotFound
	}
	err = upsertSettings(ctx, r.pool, uid, s)
	if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
		return memberrepo.ErrNotFound
	}
	return err
}

// --- helpers ---

func mapUniqueViolation(err error, fallback error) error {
	pe, ok := postgres.AsPgError(err)
	if !ok || pe.Code != postgres.UniqueViolationCode {
		return err
	}
	switch pe.ConstraintName {
	case "members_handle_key":
		return memberrepo.ErrHandleTaken
	case "members_email_key":
		return memberrepo.ErrEmailTaken
	case "members_pkey":
		return memberrepo.ErrAlreadyExists
	default:
		return fallback
	}
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertSettings(ctx context.Context, q execer, memberID uuid.UUID, s domain.NotificationSettings) error {
	_, err := q.Exec(ctx, `
		INSERT INTO notification_settings (
			member_id,
			email_event_reminders,
			email_event_status_changes,
			email_recommendations,
			email_profile_changes,
			email_questionnaire_changes,
			email_news
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (member_id) DO UPDATE SET
			email_event_reminders = EXCLUDED.email_event_reminders,
			email_event_status_changes = EXCLUDED.email_event_status_changes,
			email_recommendations = EXCLUDED.email_recommendations,
			email_profile_changes = EXCLUDED.email_profile_changes,
			email_questionnaire_changes = EXCLUDED.email_questionnaire_changes,
			email_news = EXCLUDED.email_news
	`,
		memberID,
		s.EmailEventReminders,
		s.EmailEventStatusChanges,
		s.EmailRecommendations,
		s.EmailProfileChanges,
		s.EmailQuestionnaireChanges,
		s.EmailNews,
	)
	return err
}

func scanMember(row interface {
	Scan(dest ...any) error
}) (memberrepo.Member, error) {
	var (
		id        uuid.UUID
		m         memberrepo.Member
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&id,
		&m.Handle,
		&m.Email,
		&m.PasswordHash,
		&m.FirstName,
		&m.LastName,
		&m.Age,
		&m.City,
		&m.Studies,
		&m.EducationPlace,
		&m.Works,
		&m.WorkPlace,
		&m.About,
		&m.AvatarRef,
		&m.IsApproved,
		&m.IsActive,
		&m.IsSuperuser,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return memberrepo.Member{}, memberrepo.ErrNotFound
		}
		return memberrepo.Member{}, err
	}
	m.ID = domain.MemberID(id.String())
	m.CreatedAt = createdAt.UTC()
	m.UpdatedAt = updatedAt.UTC()
	return m, nil
}
