package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BGNPerEUR is the fixed conversion rate of the lev to the euro.
var BGNPerEUR = decimal.RequireFromString("1.95583")

// Event is an organized community event members can register for.
type Event struct {
	ID EventID

	Title       string
	Description string
	StartsAt    time.Time
	City        string
	Location    string
	KidFriendly bool

	InterestIDs []InterestID

	// ImageRef points at a stored image asset; nil means no image.
	ImageRef *string

	Capacity int
	// Price is in the native currency with two decimals.
	Price decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPast reports whether the event has started at or before now.
func (e Event) IsPast(now time.Time) bool {
	return !e.StartsAt.After(now)
}

// FreeSpots returns the remaining capacity given the number of approved registrations.
func (e Event) FreeSpots(approved int) int {
	if free := e.Capacity - approved; free > 0 {
		return free
	}
	return 0
}

// PriceEUR converts the price to euro at the fixed peg, rounded half-up to one decimal.
func (e Event) PriceEUR() decimal.Decimal {
	return e.Price.Div(BGNPerEUR).Round(1)
}

// HasInterest reports whether the event is tagged with id.
func (e Event) HasInterest(id InterestID) bool {
	for _, v := range e.InterestIDs {
		if v == id {
			return true
		}
	}
	return false
}

// ConvertPrice multiplies price by rate and rounds half-up to one decimal.
func ConvertPrice(price, rate decimal.Decimal) decimal.Decimal {
	return price.Mul(rate).Round(1)
}
