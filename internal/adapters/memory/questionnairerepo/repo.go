package questionnairerepo

import (
	"context"
	"sync"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/questionnairerepo"
)

// Repo is an in-memory implementation of questionnairerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu       sync.RWMutex
	byMember map[domain.MemberID]domain.Questionnaire
}

func NewRepo() *Repo {
	return &Repo{byMember: make(map[domain.MemberID]domain.Questionnaire)}
}

func (r *Repo) Get(ctx context.Context, memberID domain.MemberID) (domain.Questionnaire, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.byMember[memberID]
	if !ok {
		return domain.Questionnaire{}, questionnairerepo.ErrNotFound
	}
	return cloneQuestionnaire(q), nil
}

func (r *Repo) Create(ctx context.Context, q domain.Questionnaire) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byMember[q.MemberID]; ok {
		return questionnairerepo.ErrAlreadyExists
	}
	r.byMember[q.MemberID] = cloneQuestionnaire(q)
	return nil
}

func (r *Repo) Save(ctx context.Context, q domain.Questionnaire) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byMember[q.MemberID]; !ok {
		return questionnairerepo.ErrNotFound
	}
	r.byMember[q.MemberID] = cloneQuestionnaire(q)
	return nil
}

// DeleteByMember removes the member's questionnaire, if any.
func (r *Repo) DeleteByMember(ctx context.Context, memberID domain.MemberID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byMember, memberID)
	return nil
}

func cloneQuestionnaire(q domain.Questionnaire) domain.Questionnaire {
	out := q
	out.InterestIDs = append([]domain.InterestID(nil), q.InterestIDs...)
	out.Instagram = cloneStringPtr(q.Instagram)
	out.TikTok = cloneStringPtr(q.TikTok)
	out.LinkedIn = cloneStringPtr(q.LinkedIn)
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
