package events

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/platform/log"
	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
	"github.com/luxeladies/community-api/internal/ports/out/eventrepo"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
	"github.com/luxeladies/community-api/internal/ports/out/questionnairerepo"
	"github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
)

const (
	maxTitleLen    = 200
	maxCityLen     = 50
	maxLocationLen = 200
	maxInterestLen = 50
)

type Deps struct {
	Events         eventrepo.Repository
	Registrations  registrationrepo.Repository
	Members        memberrepo.Repository
	Questionnaires questionnairerepo.Repository
	Clock          clockport.Clock
	// Location defines calendar days for the date filter; nil means UTC.
	Location *time.Location
	// HubCity is recommended to members who can travel.
	HubCity string
	// EURRate converts prices for display; zero uses the fixed lev peg.
	EURRate decimal.Decimal
	Logger  *log.Logger
}

type Service struct {
	events         eventrepo.Repository
	registrations  registrationrepo.Repository
	members        memberrepo.Repository
	questionnaires questionnairerepo.Repository
	clk            clockport.Clock
	loc            *time.Location
	hubCity        string
	rate           decimal.Decimal
	logger         *log.Logger

	newEventID    func() domain.EventID
	newInterestID func() domain.InterestID
}

func NewService(d Deps) *Service {
	s := &Service{
		events:         d.Events,
		registrations:  d.Registrations,
		members:        d.Members,
		questionnaires: d.Questionnaires,
		clk:            d.Clock,
		loc:            d.Location,
		hubCity:        strings.TrimSpace(d.HubCity),
		rate:           d.EURRate,
		logger:         d.Logger,
		newEventID: func() domain.EventID {
			return domain.EventID(uuid.NewString())
		},
		newInterestID: func() domain.InterestID {
			return domain.InterestID(uuid.NewString())
		},
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	return s
}

// SetNewEventIDForTest overrides event ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewEventIDForTest(fn func() domain.EventID) {
	if fn != nil {
		s.newEventID = fn
	}
}

// CheckAccess enforces that members browse events only after completing the
// questionnaire. Superusers are exempt.
func (s *Service) CheckAccess(ctx context.Context, caller domain.MemberID) error {
	m, err := s.members.GetByID(ctx, caller)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return &Error{Status: http.StatusNotFound, Code: "MEMBER_NOT_FOUND", Message: "member not found"}
		}
		return err
	}
	if m.IsSuperuser {
		return nil
	}
	q, err := s.questionnaires.Get(ctx, caller)
	if err != nil && !errors.Is(err, questionnairerepo.ErrNotFound) {
		return err
	}
	if err != nil || !q.Completed {
		return &Error{
			Status:  http.StatusForbidden,
			Code:    "QUESTIONNAIRE_REQUIRED",
			Message: "complete the questionnaire to see events",
		}
	}
	return nil
}

// ListUpcoming returns events that have not started yet, soonest first.
func (s *Service) ListUpcoming(ctx context.Context, caller domain.MemberID, f Filter) ([]EventView, error) {
	now := s.clk.Now()
	w := eventrepo.Window{After: &now}
	if f.Date != nil {
		d := f.Date.In(s.loc)
		from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
		// Window.After is exclusive.
		after := from.Add(-time.Nanosecond)
		until := from.AddDate(0, 0, 1).Add(-time.Nanosecond)
		if after.Before(now) {
			after = now
		}
		w.After, w.Until = &after, &until
	}
	evs, err := s.events.List(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}

	city := domain.FoldKey(f.City)
	out := make([]domain.Event, 0, len(evs))
	for _, e := range evs {
		if city != "" && domain.FoldKey(e.City) != city {
			continue
		}
		if f.InterestID != "" && !e.HasInterest(f.InterestID) {
			continue
		}
		if f.KidFriendly != nil && e.KidFriendly != *f.KidFriendly {
			continue
		}
		out = append(out, e)
	}
	return s.views(ctx, caller, out, now)
}

// ListPast returns events that have started, most recent first.
func (s *Service) ListPast(ctx context.Context) ([]EventView, error) {
	now := s.clk.Now()
	evs, err := s.events.List(ctx, eventrepo.Window{Until: &now, Descending: true})
	if err != nil {
		return nil, fmt.Errorf("list past events: %w", err)
	}
	return s.views(ctx, "", evs, now)
}

// Recommended returns upcoming events in the member's city, plus the hub
// city for members who can travel. Kid-friendly events are included only
// for members who asked for them.
func (s *Service) Recommended(ctx context.Context, caller domain.MemberID) ([]EventView, error) {
	m, err := s.members.GetByID(ctx, caller)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return nil, &Error{Status: http.StatusNotFound, Code: "MEMBER_NOT_FOUND", Message: "member not found"}
		}
		return nil, err
	}

	cities := make(map[string]bool, 2)
	wantsKids := false
	q, err := s.questionnaires.Get(ctx, caller)
	switch {
	case err == nil:
		cities[domain.FoldKey(q.City)] = true
		if q.CanTravel && s.hubCity != "" {
			cities[domain.FoldKey(s.hubCity)] = true
		}
		wantsKids = q.WantsKidFriendlyEvents()
	case errors.Is(err, questionnairerepo.ErrNotFound):
		cities[domain.FoldKey(m.City)] = true
	default:
		return nil, err
	}
	delete(cities, "")

	now := s.clk.Now()
	evs, err := s.events.List(ctx, eventrepo.Window{After: &now})
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	out := make([]domain.Event, 0, len(evs))
	for _, e := range evs {
		if !cities[domain.FoldKey(e.City)] {
			continue
		}
		if e.KidFriendly && !wantsKids {
			continue
		}
		out = append(out, e)
	}
	return s.views(ctx, caller, out, now)
}

// Get returns one event with the caller's registration, if any.
func (s *Service) Get(ctx context.Context, caller domain.MemberID, id domain.EventID) (EventView, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return EventView{}, err
	}
	views, err := s.views(ctx, caller, []domain.Event{e}, s.clk.Now())
	if err != nil {
		return EventView{}, err
	}
	return views[0], nil
}

func (s *Service) Create(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	now := s.clk.Now()
	e := domain.Event{
		ID:          s.newEventID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		StartsAt:    in.StartsAt.UTC(),
		City:        strings.TrimSpace(in.City),
		Location:    strings.TrimSpace(in.Location),
		KidFriendly: in.KidFriendly,
		InterestIDs: in.InterestIDs,
		ImageRef:    in.ImageRef,
		Capacity:    in.Capacity,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.validate(ctx, &e); err != nil {
		return domain.Event{}, err
	}
	if err := s.events.Create(ctx, e); err != nil {
		if errors.Is(err, eventrepo.ErrAlreadyExists) {
			return domain.Event{}, &Error{Status: http.StatusConflict, Code: "EVENT_ID_CONFLICT", Message: "event id conflict"}
		}
		return domain.Event{}, err
	}
	s.logger.WithField("event_id", e.ID).Info("event created")
	return e, nil
}

func (s *Service) Update(ctx context.Context, id domain.EventID, in UpdateEventInput) (domain.Event, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}

	for _, f := range []struct {
		name string
		o    Optional[string]
	}{{"title", in.Title}, {"description", in.Description}, {"city", in.City}, {"location", in.Location}} {
		if f.o.IsNull() {
			return domain.Event{}, validationError("invalid "+f.name, map[string]any{f.name: "cannot be null"})
		}
	}
	if in.Title.IsSpecified() {
		e.Title = strings.TrimSpace(in.Title.Value())
	}
	if in.Description.IsSpecified() {
		e.Description = strings.TrimSpace(in.Description.Value())
	}
	if in.City.IsSpecified() {
		e.City = strings.TrimSpace(in.City.Value())
	}
	if in.Location.IsSpecified() {
		e.Location = strings.TrimSpace(in.Location.Value())
	}
	if in.StartsAt.IsSpecified() && !in.StartsAt.IsNull() {
		e.StartsAt = in.StartsAt.Value().UTC()
	}
	if in.KidFriendly.IsSpecified() && !in.KidFriendly.IsNull() {
		e.KidFriendly = in.KidFriendly.Value()
	}
	if in.InterestIDs.IsSpecified() {
		e.InterestIDs = in.InterestIDs.Value()
	}
	if in.ImageRef.IsSpecified() {
		if in.ImageRef.IsNull() {
			e.ImageRef = nil
		} else {
			v := in.ImageRef.Value()
			e.ImageRef = &v
		}
	}
	if in.Capacity.IsSpecified() && !in.Capacity.IsNull() {
		e.Capacity = in.Capacity.Value()
	}
	if in.Price.IsSpecified() && !in.Price.IsNull() {
		e.Price = in.Price.Value()
	}

	if err := s.validate(ctx, &e); err != nil {
		return domain.Event{}, err
	}
	e.UpdatedAt = s.clk.Now()
	if err := s.events.Save(ctx, e); err != nil {
		if errors.Is(err, eventrepo.ErrNotFound) {
			return domain.Event{}, eventNotFound()
		}
		return domain.Event{}, err
	}
	return e, nil
}

func (s *Service) CreateInterest(ctx context.Context, name string) (domain.Interest, error) {
	name = domain.NormalizeHumanName(name)
	if name == "" || utf8.RuneCountInString(name) > maxInterestLen {
		return domain.Interest{}, validationError("invalid name", map[string]any{
			"name": fmt.Sprintf("must be 1 to %d characters", maxInterestLen),
		})
	}
	i := domain.Interest{ID: s.newInterestID(), Name: name}
	if err := s.events.CreateInterest(ctx, i); err != nil {
		if errors.Is(err, eventrepo.ErrInterestExists) {
			return domain.Interest{}, &Error{Status: http.StatusConflict, Code: "INTEREST_EXISTS", Message: "interest already exists"}
		}
		return domain.Interest{}, err
	}
	return i, nil
}

func (s *Service) ListInterests(ctx context.Context) ([]domain.Interest, error) {
	return s.events.ListInterests(ctx)
}

// validate checks e and normalizes its interest list and price.
func (s *Service) validate(ctx context.Context, e *domain.Event) error {
	details := map[string]any{}
	checkLen := func(field, v string, limit int) {
		if v == "" || utf8.RuneCountInString(v) > limit {
			details[field] = fmt.Sprintf("must be 1 to %d characters", limit)
		}
	}
	checkLen("title", e.Title, maxTitleLen)
	checkLen("city", e.City, maxCityLen)
	if utf8.RuneCountInString(e.Location) > maxLocationLen {
		details["location"] = fmt.Sprintf("must be at most %d characters", maxLocationLen)
	}
	if e.StartsAt.IsZero() {
		details["startsAt"] = "is required"
	}
	if e.Capacity < 0 {
		details["capacity"] = "must be >= 0"
	}
	if e.Price.IsNegative() {
		details["price"] = "must be >= 0"
	} else if !e.Price.Equal(e.Price.Round(2)) {
		details["price"] = "must have at most two decimals"
	}

	ids, err := s.checkInterests(ctx, e.InterestIDs)
	if err != nil {
		return err
	}
	if ids == nil {
		details["interestIds"] = "contains unknown interests"
	}
	if len(details) > 0 {
		return validationError("invalid event", details)
	}
	e.InterestIDs = ids
	e.Price = e.Price.Round(2)
	return nil
}

// checkInterests returns the de-duplicated ids, or nil when one is unknown.
func (s *Service) checkInterests(ctx context.Context, ids []domain.InterestID) ([]domain.InterestID, error) {
	out := make([]domain.InterestID, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	catalog, err := s.events.ListInterests(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[domain.InterestID]bool, len(catalog))
	for _, i := range catalog {
		known[i.ID] = true
	}
	seen := make(map[domain.InterestID]bool, len(ids))
	for _, id := range ids {
		if !known[id] {
			return nil, nil
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id domain.EventID) (domain.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventrepo.ErrNotFound) {
			return domain.Event{}, eventNotFound()
		}
		return domain.Event{}, err
	}
	return e, nil
}

func (s *Service) views(ctx context.Context, caller domain.MemberID, evs []domain.Event, now time.Time) ([]EventView, error) {
	out := make([]EventView, 0, len(evs))
	for _, e := range evs {
		approved, err := s.registrations.CountByEvent(ctx, e.ID, domain.RegistrationApproved)
		if err != nil {
			return nil, fmt.Errorf("count registrations for %s: %w", e.ID, err)
		}
		v := EventView{
			Event:     e,
			FreeSpots: e.FreeSpots(approved),
			PriceEUR:  s.priceEUR(e),
			IsPast:    e.IsPast(now),
		}
		if caller != "" {
			r, err := s.registrations.GetByEventAndMember(ctx, e.ID, caller)
			switch {
			case err == nil:
				v.MyRegistration = &r
			case !errors.Is(err, registrationrepo.ErrNotFound):
				return nil, err
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) priceEUR(e domain.Event) decimal.Decimal {
	if s.rate.IsZero() {
		return e.PriceEUR()
	}
	return domain.ConvertPrice(e.Price, s.rate)
}
