package registrations

import "github.com/luxeladies/community-api/internal/domain"

// AlreadyInStateMessage is reported when a status change targets the current status.
const AlreadyInStateMessage = "already in that state"

type RegisterInput struct {
	EventID  domain.EventID
	MemberID domain.MemberID
	// FullName defaults to the member's display name when empty.
	FullName  string
	ChildName *string
	ChildAge  *int
}

// RegisterResult carries the stored registration. Created is false when the
// member had already registered and the existing row was returned unchanged.
type RegisterResult struct {
	Registration domain.EventRegistration
	Created      bool
}

type StatusChange struct {
	Registration domain.EventRegistration
	Previous     domain.RegistrationStatus
	Changed      bool
	// Notified reports whether the member was emailed about the change.
	Notified bool
	Message  string
}

// MyEvents lists the events a member is approved for.
type MyEvents struct {
	// Upcoming is ordered by start time ascending.
	Upcoming []domain.Event
	// Past is ordered by start time descending.
	Past []domain.Event
}
