package memberrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
)

// Cascade removes data owned by a member when the member is deleted.
// The in-memory stores have no foreign keys, so the owner wires these up.
type Cascade func(ctx context.Context, id domain.MemberID) error

// Repo is an in-memory implementation of memberrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID       map[domain.MemberID]memberrepo.Member
	idByHandle map[string]domain.MemberID
	idByEmail  map[string]domain.MemberID
	settings   map[domain.MemberID]domain.NotificationSettings

	cascades []Cascade
}

func NewRepo() *Repo {
	return &Repo{
		byID:       make(map[domain.MemberID]memberrepo.Member),
		idByHandle: make(map[string]domain.MemberID),
		idByEmail:  make(map[string]domain.MemberID),
		settings:   make(map[domain.MemberID]domain.NotificationSettings),
	}
}

// OnDelete registers a cascade run after a member is removed.
func (r *Repo) OnDelete(c Cascade) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cascades = append(r.cascades, c)
}

func (r *Repo) Create(ctx context.Context, m memberrepo.Member, settings domain.NotificationSettings) error {
	_ = ctx
	if m.ID == "" {
		return memberrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[m.ID]; ok {
		return memberrepo.ErrAlreadyExists
	}
	if _, ok := r.idByHandle[domain.FoldKey(m.Handle)]; ok {
		return memberrepo.ErrHandleTaken
	}
	if _, ok := r.idByEmail[domain.FoldKey(m.Email)]; ok && m.Email != "" {
		return memberrepo.ErrEmailTaken
	}

	r.byID[m.ID] = cloneMember(m)
	r.index(m)
	settings.MemberID = m.ID
	r.settings[m.ID] = settings
	return nil
}

func (r *Repo) Update(ctx context.Context, m memberrepo.Member) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[m.ID]
	if !ok {
		return memberrepo.ErrNotFound
	}
	if id, ok := r.idByHandle[domain.FoldKey(m.Handle)]; ok && id != m.ID {
		return memberrepo.ErrHandleTaken
	}
	if id, ok := r.idByEmail[domain.FoldKey(m.Email)]; ok && id != m.ID && m.Email != "" {
		return memberrepo.ErrEmailTaken
	}

	r.unindex(existing)
	r.byID[m.ID] = cloneMember(m)
	r.index(m)
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MemberID) error {
	r.mu.Lock()
	existing, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return memberrepo.ErrNotFound
	}
	r.unindex(existing)
	delete(r.byID, id)
	delete(r.settings, id)
	cascades := append([]Cascade(nil), r.cascades...)
	r.mu.Unlock()

	for _, c := range cascades {
		if err := c(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *Repo) GetByLogin(ctx context.Context, login string) (memberrepo.Member, error) {
	_ = ctx
	key := domain.FoldKey(login)
	if key == "" {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByHandle[key]
	if !ok {
		id, ok = r.idByEmail[key]
	}
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return cloneMember(r.byID[id]), nil
}

func (r *Repo) List(ctx context.Context, f memberrepo.ListFilter) ([]memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]memberrepo.Member, 0, len(r.byID))
	for _, m := range r.byID {
		if f.Approved != nil && m.IsApproved != *f.Approved {
			continue
		}
		if f.ActiveOnly && !m.IsActive {
			continue
		}
		if f.ExcludeSuperusers && m.IsSuperuser {
			continue
		}
		out = append(out, cloneMember(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repo) GetSettings(ctx context.Context, id domain.MemberID) (domain.NotificationSettings, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[id]
	if !ok {
		return domain.NotificationSettings{}, memberrepo.ErrNotFound
	}
	return s, nil
}

func (r *Repo) SaveSettings(ctx context.Context, s domain.NotificationSettings) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.MemberID]; !ok {
		return memberrepo.ErrNotFound
	}
	r.settings[s.MemberID] = s
	return nil
}

func (r *Repo) index(m memberrepo.Member) {
	r.idByHandle[domain.FoldKey(m.Handle)] = m.ID
	if m.Email != "" {
		r.idByEmail[domain.FoldKey(m.Email)] = m.ID
	}
}

func (r *Repo) unindex(m memberrepo.Member) {
	delete(r.idByHandle, domain.FoldKey(m.Handle))
	if m.Email != "" {
		delete(r.idByEmail, domain.FoldKey(m.Email))
	}
}

func cloneMember(m memberrepo.Member) memberrepo.Member {
	out := m
	out.AvatarRef = cloneStringPtr(m.AvatarRef)
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
