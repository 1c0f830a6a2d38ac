package registrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/luxeladies/community-api/internal/app/notify"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/platform/log"
	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
	"github.com/luxeladies/community-api/internal/ports/out/eventrepo"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
	"github.com/luxeladies/community-api/internal/ports/out/opsnotify"
	"github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
)

// Dispatcher sends member-facing email notifications.
type Dispatcher interface {
	Send(ctx context.Context, n notify.Notification) error
}

type Deps struct {
	Members       memberrepo.Repository
	Events        eventrepo.Repository
	Registrations registrationrepo.Repository
	Clock         clockport.Clock
	Mail          Dispatcher
	Ops           opsnotify.Notifier
	Logger        *log.Logger
}

type Service struct {
	members       memberrepo.Repository
	events        eventrepo.Repository
	registrations registrationrepo.Repository
	clk           clockport.Clock
	mail          Dispatcher
	ops           opsnotify.Notifier
	logger        *log.Logger

	newRegistrationID func() domain.RegistrationID
}

func NewService(d Deps) *Service {
	s := &Service{
		members:       d.Members,
		events:        d.Events,
		registrations: d.Registrations,
		clk:           d.Clock,
		mail:          d.Mail,
		ops:           d.Ops,
		logger:        d.Logger,
		newRegistrationID: func() domain.RegistrationID {
			return domain.RegistrationID(uuid.NewString())
		},
	}
	if s.ops == nil {
		s.ops = opsnotify.Nop{}
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	return s
}

// RegisterForEvent returns the member's registration for the event, creating
// a pending one on first request.
func (s *Service) RegisterForEvent(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	m, err := s.loadMember(ctx, in.MemberID)
	if err != nil {
		return RegisterResult{}, err
	}
	member := m.Domain()
	if !member.CanAttendEvents() {
		return RegisterResult{}, &Error{
			Status:  http.StatusForbidden,
			Code:    "MEMBER_NOT_APPROVED",
			Message: "only approved members can register for events",
		}
	}
	ev, err := s.loadEvent(ctx, in.EventID)
	if err != nil {
		return RegisterResult{}, err
	}
	now := s.clk.Now()
	if ev.IsPast(now) {
		return RegisterResult{}, &Error{
			Status:  http.StatusConflict,
			Code:    "EVENT_CLOSED",
			Message: "the event has already started",
		}
	}

	existing, err := s.registrations.GetByEventAndMember(ctx, ev.ID, member.ID)
	if err == nil {
		return RegisterResult{Registration: existing}, nil
	}
	if !errors.Is(err, registrationrepo.ErrNotFound) {
		return RegisterResult{}, err
	}

	reg := domain.EventRegistration{
		ID:        s.newRegistrationID(),
		EventID:   ev.ID,
		MemberID:  member.ID,
		FullName:  domain.NormalizeHumanName(in.FullName),
		Status:    domain.RegistrationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if reg.FullName == "" {
		reg.FullName = member.DisplayName()
	}
	if ev.KidFriendly {
		var childName string
		if in.ChildName != nil {
			childName = domain.NormalizeHumanName(*in.ChildName)
		}
		if childName == "" || in.ChildAge == nil || *in.ChildAge < 0 {
			return RegisterResult{}, validationError("child details required", map[string]any{
				"childName": "is required for kid-friendly events",
				"childAge":  "is required for kid-friendly events and must be zero or greater",
			})
		}
		age := *in.ChildAge
		reg.ChildName = &childName
		reg.ChildAge = &age
	}

	if err := s.registrations.Create(ctx, reg); err != nil {
		if errors.Is(err, registrationrepo.ErrAlreadyExists) {
			// Lost a race with a concurrent request for the same pair.
			existing, getErr := s.registrations.GetByEventAndMember(ctx, ev.ID, member.ID)
			if getErr != nil {
				return RegisterResult{}, fmt.Errorf("load registration after conflict: %w", getErr)
			}
			return RegisterResult{Registration: existing}, nil
		}
		return RegisterResult{}, err
	}

	if err := s.ops.RegistrationCreated(ctx, member, ev, reg); err != nil {
		s.logger.WithError(err).WithField("registration_id", reg.ID).Warn("ops alert for new registration failed")
	}
	return RegisterResult{Registration: reg, Created: true}, nil
}

// SetStatus moves a registration to approved or rejected and emails the member
// about an actual change.
func (s *Service) SetStatus(ctx context.Context, id domain.RegistrationID, status domain.RegistrationStatus) (StatusChange, error) {
	if !status.Terminal() {
		return StatusChange{}, validationError("invalid status", map[string]any{"status": "must be approved or rejected"})
	}
	before, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, registrationrepo.ErrNotFound) {
			return StatusChange{}, notFound("REGISTRATION_NOT_FOUND", "registration not found")
		}
		return StatusChange{}, err
	}
	if before.Status == status {
		return StatusChange{
			Registration: before,
			Previous:     before.Status,
			Message:      AlreadyInStateMessage,
		}, nil
	}

	now := s.clk.Now()
	if err := s.registrations.UpdateStatus(ctx, id, status, now); err != nil {
		if errors.Is(err, registrationrepo.ErrNotFound) {
			return StatusChange{}, notFound("REGISTRATION_NOT_FOUND", "registration not found")
		}
		return StatusChange{}, err
	}
	after := before
	after.Status = status
	after.UpdatedAt = now

	return StatusChange{
		Registration: after,
		Previous:     before.Status,
		Changed:      true,
		Notified:     s.notifyStatusChange(ctx, before, after),
		Message:      "registration " + string(status),
	}, nil
}

func (s *Service) Approve(ctx context.Context, id domain.RegistrationID) (StatusChange, error) {
	return s.SetStatus(ctx, id, domain.RegistrationApproved)
}

func (s *Service) Reject(ctx context.Context, id domain.RegistrationID) (StatusChange, error) {
	return s.SetStatus(ctx, id, domain.RegistrationRejected)
}

// ListMine returns the events the member is approved for, split at now.
func (s *Service) ListMine(ctx context.Context, memberID domain.MemberID) (MyEvents, error) {
	regs, err := s.registrations.ListByMember(ctx, memberID)
	if err != nil {
		return MyEvents{}, err
	}
	now := s.clk.Now()
	out := MyEvents{Upcoming: []domain.Event{}, Past: []domain.Event{}}
	for _, r := range regs {
		if r.Status != domain.RegistrationApproved {
			continue
		}
		ev, err := s.events.GetByID(ctx, r.EventID)
		if err != nil {
			if errors.Is(err, eventrepo.ErrNotFound) {
				continue
			}
			return MyEvents{}, err
		}
		if ev.IsPast(now) {
			out.Past = append(out.Past, ev)
		} else {
			out.Upcoming = append(out.Upcoming, ev)
		}
	}
	sort.SliceStable(out.Upcoming, func(i, j int) bool { return out.Upcoming[i].StartsAt.Before(out.Upcoming[j].StartsAt) })
	sort.SliceStable(out.Past, func(i, j int) bool { return out.Past[i].StartsAt.After(out.Past[j].StartsAt) })
	return out, nil
}

// notifyStatusChange emails the registrant when the status actually changed.
// Delivery problems are logged and reported as false.
func (s *Service) notifyStatusChange(ctx context.Context, before, after domain.EventRegistration) bool {
	if before.Status == after.Status || after.Status == domain.RegistrationPending {
		return false
	}
	if s.mail == nil {
		return false
	}
	entry := s.logger.WithField("registration_id", after.ID)

	m, err := s.members.GetByID(ctx, after.MemberID)
	if err != nil {
		entry.WithError(err).Warn("load registrant failed")
		return false
	}
	if m.Email == "" {
		return false
	}
	settings, err := s.members.GetSettings(ctx, m.ID)
	if errors.Is(err, memberrepo.ErrNotFound) {
		settings, err = domain.DefaultNotificationSettings(m.ID), nil
	}
	if err != nil {
		entry.WithError(err).Warn("load notification settings failed")
		return false
	}
	if !settings.EmailEventStatusChanges {
		return false
	}
	ev, err := s.events.GetByID(ctx, after.EventID)
	if err != nil {
		entry.WithError(err).Warn("load event failed")
		return false
	}

	kind := notify.KindRegistrationApproved
	if after.Status == domain.RegistrationRejected {
		kind = notify.KindRegistrationRejected
	}
	member := m.Domain()
	data := notify.RegistrationStatus{
		RecipientName:   recipientName(after, member),
		RegistrantEmail: m.Email,
		FullName:        after.FullName,
		Event:           notify.NewEventInfo(ev),
	}
	if after.ChildName != nil {
		data.ChildName = *after.ChildName
	}
	if err := s.mail.Send(ctx, notify.Notification{Kind: kind, To: m.Email, Data: data}); err != nil {
		entry.WithError(err).WithField("kind", kind).Warn("status change notification failed")
		return false
	}
	return true
}

func (s *Service) loadMember(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	m, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return memberrepo.Member{}, notFound("MEMBER_NOT_FOUND", "member not found")
		}
		return memberrepo.Member{}, err
	}
	return m, nil
}

func (s *Service) loadEvent(ctx context.Context, id domain.EventID) (domain.Event, error) {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventrepo.ErrNotFound) {
			return domain.Event{}, notFound("EVENT_NOT_FOUND", "event not found")
		}
		return domain.Event{}, err
	}
	return ev, nil
}

// recipientName prefers the name given on the registration.
func recipientName(r domain.EventRegistration, m domain.Member) string {
	if name := strings.TrimSpace(r.FullName); name != "" {
		return name
	}
	return m.GreetingName()
}
