package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/luxeladies/community-api/internal/app/events"
	"github.com/luxeladies/community-api/internal/app/registrations"
	"github.com/luxeladies/community-api/internal/domain"
)

type InterestsResponse struct {
	Body struct {
		Interests []Interest `json:"interests"`
	}
}

func (s *Server) HandleListInterests(ctx context.Context, _ *struct{}) (*InterestsResponse, error) {
	is, err := s.Events.ListInterests(ctx)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &InterestsResponse{}
	out.Body.Interests = interestsFromDomain(is)
	return out, nil
}

type EventsResponse struct {
	Body struct {
		Events []Event `json:"events"`
	}
}

func eventsResponse(vs []events.EventView) *EventsResponse {
	out := &EventsResponse{}
	out.Body.Events = eventsFromViews(vs)
	return out
}

type ListEventsRequest struct {
	Date        string `query:"date" doc:"Local calendar day, YYYY-MM-DD"`
	City        string `query:"city"`
	InterestID  string `query:"interestId"`
	KidFriendly string `query:"kidFriendly" doc:"yes or no"`
}

func (r *ListEventsRequest) filter(ctx context.Context, loc *time.Location) (events.Filter, error) {
	f := events.Filter{
		City:       strings.TrimSpace(r.City),
		InterestID: domain.InterestID(strings.TrimSpace(r.InterestID)),
	}
	if d := strings.TrimSpace(r.Date); d != "" {
		t, err := time.ParseInLocation(openapi_types.DateFormat, d, loc)
		if err != nil {
			return events.Filter{}, invalid(ctx, "date", "expected YYYY-MM-DD")
		}
		f.Date = &t
	}
	switch strings.ToLower(strings.TrimSpace(r.KidFriendly)) {
	case "":
	case "yes", "true":
		v := true
		f.KidFriendly = &v
	case "no", "false":
		v := false
		f.KidFriendly = &v
	default:
		return events.Filter{}, invalid(ctx, "kidFriendly", "expected yes or no")
	}
	return f, nil
}

func (s *Server) HandleListEvents(ctx context.Context, in *ListEventsRequest) (*EventsResponse, error) {
	m, err := s.requireEventAccess(ctx)
	if err != nil {
		return nil, err
	}
	f, err := in.filter(ctx, s.location())
	if err != nil {
		return nil, err
	}
	vs, err := s.Events.ListUpcoming(ctx, m.ID, f)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return eventsResponse(vs), nil
}

func (s *Server) HandleRecommendedEvents(ctx context.Context, _ *struct{}) (*EventsResponse, error) {
	m, err := s.requireEventAccess(ctx)
	if err != nil {
		return nil, err
	}
	vs, err := s.Events.Recommended(ctx, m.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return eventsResponse(vs), nil
}

// HandlePastEvents is public.
func (s *Server) HandlePastEvents(ctx context.Context, _ *struct{}) (*EventsResponse, error) {
	vs, err := s.Events.ListPast(ctx)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return eventsResponse(vs), nil
}

type EventPath struct {
	EventID string `path:"eventId"`
}

type EventResponse struct {
	Status int
	Body   struct {
		Event Event `json:"event"`
	}
}

func eventResponse(v events.EventView, status int) *EventResponse {
	out := &EventResponse{Status: status}
	out.Body.Event = eventFromView(v)
	return out
}

func (s *Server) HandleGetEvent(ctx context.Context, in *EventPath) (*EventResponse, error) {
	m, err := s.requireEventAccess(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.Events.Get(ctx, m.ID, domain.EventID(in.EventID))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return eventResponse(v, http.StatusOK), nil
}

type RegisterForEventRequest struct {
	EventID string `path:"eventId"`
	Body    struct {
		FullName  string  `json:"fullName,omitempty" doc:"Defaults to the member's name"`
		ChildName *string `json:"childName,omitempty"`
		ChildAge  *int    `json:"childAge,omitempty"`
	}
}

type RegistrationResponse struct {
	Status int
	Body   struct {
		Registration Registration `json:"registration"`
	}
}

// HandleRegisterForEvent answers 201 for a new registration and 200 when the
// member had already registered.
func (s *Server) HandleRegisterForEvent(ctx context.Context, in *RegisterForEventRequest) (*RegistrationResponse, error) {
	m, err := s.requireEventAccess(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.Registrations.RegisterForEvent(ctx, registrations.RegisterInput{
		EventID:   domain.EventID(in.EventID),
		MemberID:  m.ID,
		FullName:  in.Body.FullName,
		ChildName: in.Body.ChildName,
		ChildAge:  in.Body.ChildAge,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &RegistrationResponse{Status: http.StatusOK}
	if res.Created {
		out.Status = http.StatusCreated
	}
	out.Body.Registration = registrationFromDomain(res.Registration)
	return out, nil
}
