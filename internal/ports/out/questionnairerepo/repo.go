package questionnairerepo

import (
	"context"

	"github.com/luxeladies/community-api/internal/domain"
)

// Repository provides access to persisted questionnaires (at most one per member).
type Repository interface {
	Get(ctx context.Context, memberID domain.MemberID) (domain.Questionnaire, error)
	Create(ctx context.Context, q domain.Questionnaire) error
	Save(ctx context.Context, q domain.Questionnaire) error
}
