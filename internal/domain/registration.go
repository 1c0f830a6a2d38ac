package domain

import "time"

// RegistrationStatus is the review state of an event registration.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether s is a state an operator may move a registration into.
func (s RegistrationStatus) Terminal() bool {
	return s == RegistrationApproved || s == RegistrationRejected
}

// EventRegistration is a member's request to attend an event.
type EventRegistration struct {
	ID       RegistrationID
	EventID  EventID
	MemberID MemberID

	FullName string

	// Child fields are set only for kid-friendly events.
	ChildName *string
	ChildAge  *int

	Status RegistrationStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}
