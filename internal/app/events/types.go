package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/luxeladies/community-api/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

type CreateEventInput struct {
	Title       string
	Description string
	StartsAt    time.Time
	City        string
	Location    string
	KidFriendly bool
	InterestIDs []domain.InterestID
	ImageRef    *string
	Capacity    int
	Price       decimal.Decimal
}

// UpdateEventInput patches an event. Only ImageRef may be null.
type UpdateEventInput struct {
	Title       Optional[string]
	Description Optional[string]
	StartsAt    Optional[time.Time]
	City        Optional[string]
	Location    Optional[string]
	KidFriendly Optional[bool]
	InterestIDs Optional[[]domain.InterestID]
	ImageRef    Optional[string]
	Capacity    Optional[int]
	Price       Optional[decimal.Decimal]
}

// Filter narrows the upcoming event list. Zero values mean "no constraint".
type Filter struct {
	// Date selects events on that local calendar day; only its date part is used.
	Date        *time.Time
	City        string
	InterestID  domain.InterestID
	KidFriendly *bool
}

// EventView is an event as presented to a member.
type EventView struct {
	Event     domain.Event
	FreeSpots int
	PriceEUR  decimal.Decimal
	IsPast    bool
	// MyRegistration is the caller's registration, nil when there is none.
	MyRegistration *domain.EventRegistration
}
