package opsnotify

import (
	"context"

	"github.com/luxeladies/community-api/internal/domain"
)

// Notifier posts operator-facing alerts (for example to a team chat channel).
type Notifier interface {
	MemberRegistered(ctx context.Context, m domain.Member) error
	RegistrationCreated(ctx context.Context, m domain.Member, e domain.Event, r domain.EventRegistration) error
}

// Nop discards all alerts.
type Nop struct{}

func (Nop) MemberRegistered(context.Context, domain.Member) error { return nil }

func (Nop) RegistrationCreated(context.Context, domain.Member, domain.Event, domain.EventRegistration) error {
	return nil
}
