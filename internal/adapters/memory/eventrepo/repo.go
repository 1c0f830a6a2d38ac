package eventrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/eventrepo"
)

// Repo is an in-memory implementation of eventrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID      map[domain.EventID]domain.Event
	interests map[domain.InterestID]domain.Interest
}

func NewRepo() *Repo {
	return &Repo{
		byID:      make(map[domain.EventID]domain.Event),
		interests: make(map[domain.InterestID]domain.Interest),
	}
}

func (r *Repo) Create(ctx context.Context, e domain.Event) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[e.ID]; ok || e.ID == "" {
		return eventrepo.ErrAlreadyExists
	}
	r.byID[e.ID] = cloneEvent(e)
	return nil
}

func (r *Repo) Save(ctx context.Context, e domain.Event) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[e.ID]; !ok {
		return eventrepo.ErrNotFound
	}
	r.byID[e.ID] = cloneEvent(e)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.EventID) (domain.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return domain.Event{}, eventrepo.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *Repo) List(ctx context.Context, w eventrepo.Window) ([]domain.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Event, 0)
	for _, e := range r.byID {
		if w.After != nil && !e.StartsAt.After(*w.After) {
			continue
		}
		if w.Until != nil && e.StartsAt.After(*w.Until) {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		if w.Descending {
			return out[i].StartsAt.After(out[j].StartsAt)
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

func (r *Repo) CreateInterest(ctx context.Context, i domain.Interest) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.interests {
		if existing.ID == i.ID || strings.EqualFold(existing.Name, i.Name) {
			return eventrepo.ErrInterestExists
		}
	}
	r.interests[i.ID] = i
	return nil
}

func (r *Repo) ListInterests(ctx context.Context) ([]domain.Interest, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Interest, 0, len(r.interests))
	for _, i := range r.interests {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni == nj {
			return out[i].ID < out[j].ID
		}
		return ni < nj
	})
	return out, nil
}

func cloneEvent(e domain.Event) domain.Event {
	out := e
	out.InterestIDs = append([]domain.InterestID(nil), e.InterestIDs...)
	if e.ImageRef != nil {
		v := *e.ImageRef
		out.ImageRef = &v
	}
	return out
}
