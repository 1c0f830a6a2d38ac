package questionnairerepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/luxeladies/community-api/internal/adapters/postgres"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/questionnairerepo"
)

// Repo is a Postgres implementation of questionnairerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Get(ctx context.Context, memberID domain.MemberID) (domain.Questionnaire, error) {
	if r.pool == nil {
		return domain.Questionnaire{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(memberID))
	if err != nil {
		return domain.Questionnaire{}, questionnairerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT
			q.member_id,
			q.full_name,
			q.city,
			q.can_travel,
			q.about,
			q.has_children,
			q.wants_events_with_children,
			q.why_join,
			q.instagram,
			q.tiktok,
			q.linkedin,
			q.referral_source,
			q.has_friend,
			q.friend_name,
			q.completed,
			q.created_at,
			q.updated_at,
			COALESCE(
				(SELECT array_agg(qi.interest_id::text ORDER BY qi.interest_id)
				 FROM questionnaire_interests qi
				 WHERE qi.member_id = q.member_id),
				'{}'
			)
		FROM questionnaires q
		WHERE q.member_id = $1
	`, uid)
	return scanQuestionnaire(row)
}

func (r *Repo) Create(ctx context.Context, q domain.Questionnaire) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(q.MemberID))
	if err != nil {
		return questionnairerepo.ErrNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO questionnaires (
				member_id,
				full_name,
				city,
				can_travel,
				about,
				has_children,
				wants_events_with_children,
				why_join,
				instagram,
				tiktok,
				linkedin,
				referral_source,
				has_friend,
				friend_name,
				completed,
				created_at,
				updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`,
			uid,
			q.FullName,
			q.City,
			q.CanTravel,
			q.About,
			q.HasChildren,
			q.WantsEventsWithChildren,
			q.WhyJoin,
			q.Instagram,
			q.TikTok,
			q.LinkedIn,
			string(q.ReferralSource),
			q.HasFriend,
			q.FriendName,
			q.Completed,
			q.CreatedAt.UTC(),
			q.UpdatedAt.UTC(),
		)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return questionnairerepo.ErrAlreadyExists
			}
			return err
		}
		return replaceInterests(ctx, tx, uid, q.InterestIDs)
	})
}

func (r *Repo) Save(ctx context.Context, q domain.Questionnaire) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(q.MemberID))
	if err != nil {
		return questionnairerepo.ErrNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE questionnaires
			SET full_name = $2,
			    city = $3,
			    can_travel = $4,
			    about = $5,
			    has_children = $6,
			    wants_events_with_children = $7,
			    why_join = $8,
			    instagram = $9,
			    tiktok = $10,
			    linkedin = $11,
			    referral_source = $12,
			    has_friend = $13,
			    friend_name = $14,
			    completed = $15,
			    updated_at = $16
			WHERE member_id = $1
		`,
			uid,
			q.FullName,
			q.City,
			q.CanTravel,
			q.About,
			q.HasChildren,
			q.WantsEventsWithChildren,
			q.WhyJoin,
			q.Instagram,
			q.TikTok,
			q.LinkedIn,
			string(q.ReferralSource),
			q.HasFriend,
			q.FriendName,
			q.Completed,
			q.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return questionnairerepo.ErrNotFound
		}
		return replaceInterests(ctx, tx, uid, q.InterestIDs)
	})
}

func replaceInterests(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, ids []domain.InterestID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM questionnaire_interests WHERE member_id = $1`, memberID); err != nil {
		return err
	}
	for _, id := range ids {
		iid, err := uuid.Parse(string(id))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO questionnaire_interests (member_id, interest_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, memberID, iid); err != nil {
			return err
		}
	}
	return nil
}

func scanQuestionnaire(row interface {
	Scan(dest ...any) error
}) (domain.Questionnaire, error) {
	var (
		memberID    uuid.UUID
		q           domain.Questionnaire
		referral    string
		createdAt   time.Time
		updatedAt   time.Time
		interestIDs []string
	)
	if err := row.Scan(
		&memberID,
		&q.FullName,
		&q.City,
		&q.CanTravel,
		&q.About,
		&q.HasChildren,
		&q.WantsEventsWithChildren,
		&q.WhyJoin,
		&q.Instagram,
		&q.TikTok,
		&q.LinkedIn,
		&referral,
		&q.HasFriend,
		&q.FriendName,
		&q.Completed,
		&createdAt,
		&updatedAt,
		&interestIDs,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Questionnaire{}, questionnairerepo.ErrNotFound
		}
		return domain.Questionnaire{}, err
	}
	q.MemberID = domain.MemberID(memberID.String())
	q.ReferralSource = domain.ReferralSource(referral)
	q.CreatedAt = createdAt.UTC()
	q.UpdatedAt = updatedAt.UTC()
	q.InterestIDs = make([]domain.InterestID, 0, len(interestIDs))
	for _, id := range interestIDs {
		q.InterestIDs = append(q.InterestIDs, domain.InterestID(id))
	}
	return q, nil
}
