package eventrepo

import (
	"context"
	"time"

	"github.com/luxeladies/community-api/internal/domain"
)

// Window selects events by start time.
type Window struct {
	// After excludes events starting at or before this instant.
	After *time.Time
	// Until excludes events starting after this instant.
	Until *time.Time
	// Descending orders by StartsAt descending instead of ascending.
	Descending bool
}

// Repository provides access to persisted events and the interest catalog.
//
// Result ordering expectations:
// - List orders by StartsAt (direction per Window), ties broken by ID.
// - ListInterests orders by Name ascending (case-insensitive).
type Repository interface {
	Create(ctx context.Context, e domain.Event) error
	Save(ctx context.Context, e domain.Event) error

	GetByID(ctx context.Context, id domain.EventID) (domain.Event, error)
	List(ctx context.Context, w Window) ([]domain.Event, error)

	CreateInterest(ctx context.Context, i domain.Interest) error
	ListInterests(ctx context.Context) ([]domain.Interest, error)
}
