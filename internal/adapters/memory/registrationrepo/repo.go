package registrationrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
)

type pairKey struct {
	event  domain.EventID
	member domain.MemberID
}

// Repo is an in-memory implementation of registrationrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID   map[domain.RegistrationID]domain.EventRegistration
	byPair map[pairKey]domain.RegistrationID
}

func NewRepo() *Repo {
	return &Repo{
		byID:   make(map[domain.RegistrationID]domain.EventRegistration),
		byPair: make(map[pairKey]domain.RegistrationID),
	}
}

func (r *Repo) Create(ctx context.Context, reg domain.EventRegistration) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	k := pairKey{event: reg.EventID, member: reg.MemberID}
	if _, ok := r.byPair[k]; ok {
		return registrationrepo.ErrAlreadyExists
	}
	if _, ok := r.byID[reg.ID]; ok || reg.ID == "" {
		return registrationrepo.ErrAlreadyExists
	}
	r.byID[reg.ID] = cloneRegistration(reg)
	r.byPair[k] = reg.ID
	return nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id domain.RegistrationID, status domain.RegistrationStatus, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byID[id]
	if !ok {
		return registrationrepo.ErrNotFound
	}
	reg.Status = status
	reg.UpdatedAt = at
	r.byID[id] = reg
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.RegistrationID) (domain.EventRegistration, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byID[id]
	if !ok {
		return domain.EventRegistration{}, registrationrepo.ErrNotFound
	}
	return cloneRegistration(reg), nil
}

func (r *Repo) GetByEventAndMember(ctx context.Context, eventID domain.EventID, memberID domain.MemberID) (domain.EventRegistration, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[pairKey{event: eventID, member: memberID}]
	if !ok {
		return domain.EventRegistration{}, registrationrepo.ErrNotFound
	}
	return cloneRegistration(r.byID[id]), nil
}

func (r *Repo) ListByEvents(ctx context.Context, eventIDs []domain.EventID, status domain.RegistrationStatus) ([]domain.EventRegistration, error) {
	_ = ctx
	want := make(map[domain.EventID]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = struct{}{}
	}
	return r.filter(func(reg domain.EventRegistration) bool {
		_, ok := want[reg.EventID]
		return ok && reg.Status == status
	}, false), nil
}

func (r *Repo) ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.EventRegistration, error) {
	_ = ctx
	return r.filter(func(reg domain.EventRegistration) bool {
		return reg.MemberID == memberID
	}, false), nil
}

func (r *Repo) ListByStatus(ctx context.Context, status domain.RegistrationStatus) ([]domain.EventRegistration, error) {
	_ = ctx
	return r.filter(func(reg domain.EventRegistration) bool {
		return reg.Status == status
	}, true), nil
}

func (r *Repo) CountByStatus(ctx context.Context) (map[domain.RegistrationStatus]int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[domain.RegistrationStatus]int{
		domain.RegistrationPending:  0,
		domain.RegistrationApproved: 0,
		domain.RegistrationRejected: 0,
	}
	for _, reg := range r.byID {
		out[reg.Status]++
	}
	return out, nil
}

func (r *Repo) CountByEvent(ctx context.Context, eventID domain.EventID, status domain.RegistrationStatus) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, reg := range r.byID {
		if reg.EventID == eventID && reg.Status == status {
			n++
		}
	}
	return n, nil
}

// DeleteByMember removes all registrations of the member.
func (r *Repo) DeleteByMember(ctx context.Context, memberID domain.MemberID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, reg := range r.byID {
		if reg.MemberID == memberID {
			delete(r.byID, id)
			delete(r.byPair, pairKey{event: reg.EventID, member: reg.MemberID})
		}
	}
	return nil
}

func (r *Repo) filter(keep func(domain.EventRegistration) bool, newestFirst bool) []domain.EventRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.EventRegistration, 0)
	for _, reg := range r.byID {
		if keep(reg) {
			out = append(out, cloneRegistration(reg))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func cloneRegistration(reg domain.EventRegistration) domain.EventRegistration {
	out := reg
	if reg.ChildName != nil {
		v := *reg.ChildName
		out.ChildName = &v
	}
	if reg.ChildAge != nil {
		v := *reg.ChildAge
		out.ChildAge = &v
	}
	return out
}
