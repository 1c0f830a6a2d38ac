package registrationrepo

import (
	"context"
	"time"

	"github.com/luxeladies/community-api/internal/domain"
)

// Repository provides access to persisted event registrations.
//
// The (EventID, MemberID) pair is unique; Create reports ErrAlreadyExists when a
// concurrent or earlier request already stored it.
//
// Result ordering expectations:
// - ListByStatus orders by CreatedAt descending, ties broken by ID.
// - ListByEvents and ListByMember order by CreatedAt ascending, ties broken by ID.
type Repository interface {
	Create(ctx context.Context, r domain.EventRegistration) error
	UpdateStatus(ctx context.Context, id domain.RegistrationID, status domain.RegistrationStatus, at time.Time) error

	GetByID(ctx context.Context, id domain.RegistrationID) (domain.EventRegistration, error)
	GetByEventAndMember(ctx context.Context, eventID domain.EventID, memberID domain.MemberID) (domain.EventRegistration, error)

	ListByEvents(ctx context.Context, eventIDs []domain.EventID, status domain.RegistrationStatus) ([]domain.EventRegistration, error)
	ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.EventRegistration, error)
	ListByStatus(ctx context.Context, status domain.RegistrationStatus) ([]domain.EventRegistration, error)

	CountByStatus(ctx context.Context) (map[domain.RegistrationStatus]int, error)
	CountByEvent(ctx context.Context, eventID domain.EventID, status domain.RegistrationStatus) (int, error)
}
