package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/nullable"
	"github.com/shopspring/decimal"

	"github.com/luxeladies/community-api/internal/app/admin"
	"github.com/luxeladies/community-api/internal/app/events"
	"github.com/luxeladies/community-api/internal/app/registrations"
	"github.com/luxeladies/community-api/internal/domain"
)

type DashboardResponse struct {
	Body struct {
		PendingMembers  int                `json:"pendingMembers"`
		ApprovedMembers int                `json:"approvedMembers"`
		Registrations   RegistrationCounts `json:"registrations"`
	}
}

func (s *Server) HandleDashboard(ctx context.Context, _ *struct{}) (*DashboardResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	lists, err := s.Admin.ListMembers(ctx, "", "")
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	counts, err := s.Admin.RegistrationCounts(ctx)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &DashboardResponse{}
	out.Body.PendingMembers = len(lists.Pending)
	out.Body.ApprovedMembers = len(lists.Approved)
	out.Body.Registrations = countsFromAdmin(counts)
	return out, nil
}

type ListMembersRequest struct {
	Search   string `query:"search"`
	Sort     string `query:"sort" doc:"username_asc, username_desc, age_asc, age_desc, newest or oldest; anything else sorts by name"`
	Page     int    `query:"page" minimum:"1" default:"1"`
	PageSize int    `query:"pageSize" minimum:"1" maximum:"100" default:"25"`
}

type MemberPage struct {
	Items    []Member `json:"items"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	Total    int      `json:"total"`
}

type ListMembersResponse struct {
	Body struct {
		Pending  []Member   `json:"pending"`
		Approved MemberPage `json:"approved"`
	}
}

func (s *Server) HandleListMembers(ctx context.Context, in *ListMembersRequest) (*ListMembersResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	lists, err := s.Admin.ListMembers(ctx, in.Search, admin.Sort(in.Sort))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	page := admin.Paginate(lists.Approved, in.Page, in.PageSize)
	out := &ListMembersResponse{}
	out.Body.Pending = membersFromDomain(lists.Pending)
	out.Body.Approved = MemberPage{
		Items:    membersFromDomain(page.Items),
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
	}
	return out, nil
}

type MemberPath struct {
	MemberID string `path:"memberId"`
}

type ApproveMemberResponse struct {
	Body struct {
		Member   Member `json:"member"`
		Approved bool   `json:"approved"`
		Changed  bool   `json:"changed"`
		Message  string `json:"message"`
	}
}

// HandleApproveMember reports a member outside the approval policy in the
// body rather than as an error; nothing is changed in that case.
func (s *Server) HandleApproveMember(ctx context.Context, in *MemberPath) (*ApproveMemberResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	res, err := s.Members.Approve(ctx, domain.MemberID(in.MemberID))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &ApproveMemberResponse{}
	out.Body.Member = memberFromDomain(res.Member)
	out.Body.Approved = res.Approved
	out.Body.Changed = res.Changed
	switch {
	case res.PolicyNotMet:
		out.Body.Message = "member does not meet the approval policy"
	case !res.Changed:
		out.Body.Message = "already approved"
	default:
		out.Body.Message = "member approved"
	}
	return out, nil
}

func (s *Server) HandleRejectMember(ctx context.Context, in *MemberPath) (*MemberResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	m, err := s.Members.RejectAndDelete(ctx, domain.MemberID(in.MemberID))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &MemberResponse{}
	out.Body.Member = memberFromDomain(m)
	return out, nil
}

func (s *Server) HandleDeleteMember(ctx context.Context, in *MemberPath) (*struct{}, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if _, err := s.Members.Delete(ctx, domain.MemberID(in.MemberID)); err != nil {
		return nil, s.fail(ctx, err)
	}
	return &struct{}{}, nil
}

type RegistrationListsResponse struct {
	Body struct {
		Counts   RegistrationCounts `json:"counts"`
		Pending  []RegistrationRow  `json:"pending"`
		Approved []RegistrationRow  `json:"approved"`
		Rejected []RegistrationRow  `json:"rejected"`
	}
}

func (s *Server) HandleListRegistrations(ctx context.Context, _ *struct{}) (*RegistrationListsResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	lists, err := s.Admin.ListRegistrations(ctx)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &RegistrationListsResponse{}
	out.Body.Pending = registrationRowsFromAdmin(lists.Pending)
	out.Body.Approved = registrationRowsFromAdmin(lists.Approved)
	out.Body.Rejected = registrationRowsFromAdmin(lists.Rejected)
	out.Body.Counts = countsFromAdmin(admin.Counts{
		Pending:  len(lists.Pending),
		Approved: len(lists.Approved),
		Rejected: len(lists.Rejected),
	})
	return out, nil
}

type RegistrationPath struct {
	RegistrationID string `path:"registrationId"`
}

type StatusChangeResponse struct {
	Body struct {
		Registration Registration `json:"registration"`
		Previous     string       `json:"previous"`
		Changed      bool         `json:"changed"`
		Notified     bool         `json:"notified"`
		Message      string       `json:"message"`
	}
}

func statusChangeResponse(c registrations.StatusChange) *StatusChangeResponse {
	out := &StatusChangeResponse{}
	out.Body.Registration = registrationFromDomain(c.Registration)
	out.Body.Previous = string(c.Previous)
	out.Body.Changed = c.Changed
	out.Body.Notified = c.Notified
	out.Body.Message = c.Message
	return out
}

func (s *Server) HandleApproveRegistration(ctx context.Context, in *RegistrationPath) (*StatusChangeResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	c, err := s.Registrations.Approve(ctx, domain.RegistrationID(in.RegistrationID))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return statusChangeResponse(c), nil
}

func (s *Server) HandleRejectRegistration(ctx context.Context, in *RegistrationPath) (*StatusChangeResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	c, err := s.Registrations.Reject(ctx, domain.RegistrationID(in.RegistrationID))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return statusChangeResponse(c), nil
}

type CreateEventRequest struct {
	Body struct {
		Title       string    `json:"title"`
		Description string    `json:"description,omitempty"`
		StartsAt    time.Time `json:"startsAt"`
		City        string    `json:"city"`
		Location    string    `json:"location,omitempty"`
		KidFriendly bool      `json:"kidFriendly,omitempty"`
		InterestIDs []string  `json:"interestIds,omitempty"`
		ImageRef    *string   `json:"imageRef,omitempty"`
		Capacity    int       `json:"capacity"`
		Price       string    `json:"price" doc:"Decimal string, at most two places" example:"20.00"`
	}
}

func (s *Server) HandleCreateEvent(ctx context.Context, in *CreateEventRequest) (*EventResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	b := in.Body
	price, err := parsePrice(ctx, b.Price)
	if err != nil {
		return nil, err
	}
	e, err := s.Events.Create(ctx, events.CreateEventInput{
		Title:       b.Title,
		Description: b.Description,
		StartsAt:    b.StartsAt,
		City:        b.City,
		Location:    b.Location,
		KidFriendly: b.KidFriendly,
		InterestIDs: interestIDs(b.InterestIDs),
		ImageRef:    b.ImageRef,
		Capacity:    b.Capacity,
		Price:       price,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	v, err := s.Events.Get(ctx, "", e.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return eventResponse(v, http.StatusCreated), nil
}

type UpdateEventRequest struct {
	EventID string `path:"eventId"`
	Body    struct {
		Title       *string                   `json:"title,omitempty"`
		Description *string                   `json:"description,omitempty"`
		StartsAt    *time.Time                `json:"startsAt,omitempty"`
		City        *string                   `json:"city,omitempty"`
		Location    *string                   `json:"location,omitempty"`
		KidFriendly *bool                     `json:"kidFriendly,omitempty"`
		InterestIDs *[]string                 `json:"interestIds,omitempty"`
		ImageRef    nullable.Nullable[string] `json:"imageRef,omitempty" nullable:"true" doc:"null removes the image"`
		Capacity    *int                      `json:"capacity,omitempty"`
		Price       *string                   `json:"price,omitempty"`
	}
}

func (s *Server) HandleUpdateEvent(ctx context.Context, in *UpdateEventRequest) (*EventResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	b := in.Body
	patch := events.UpdateEventInput{
		Title:       eventOptional(b.Title),
		Description: eventOptional(b.Description),
		StartsAt:    eventOptional(b.StartsAt),
		City:        eventOptional(b.City),
		Location:    eventOptional(b.Location),
		KidFriendly: eventOptional(b.KidFriendly),
		Capacity:    eventOptional(b.Capacity),
	}
	if b.InterestIDs != nil {
		patch.InterestIDs = events.Some(interestIDs(*b.InterestIDs))
	}
	switch {
	case !b.ImageRef.IsSpecified():
	case b.ImageRef.IsNull():
		patch.ImageRef = events.Null[string]()
	default:
		patch.ImageRef = events.Some(b.ImageRef.MustGet())
	}
	if b.Price != nil {
		price, err := parsePrice(ctx, *b.Price)
		if err != nil {
			return nil, err
		}
		patch.Price = events.Some(price)
	}

	e, err := s.Events.Update(ctx, domain.EventID(in.EventID), patch)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	v, err := s.Events.Get(ctx, "", e.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return eventResponse(v, http.StatusOK), nil
}

func eventOptional[T any](p *T) events.Optional[T] {
	if p == nil {
		return events.Unspecified[T]()
	}
	return events.Some(*p)
}

func parsePrice(ctx context.Context, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, invalid(ctx, "price", "must be a decimal number")
	}
	return d, nil
}

func interestIDs(raw []string) []domain.InterestID {
	out := make([]domain.InterestID, 0, len(raw))
	for _, id := range raw {
		out = append(out, domain.InterestID(strings.TrimSpace(id)))
	}
	return out
}

type CreateInterestRequest struct {
	Body struct {
		Name string `json:"name"`
	}
}

type InterestResponse struct {
	Body struct {
		Interest Interest `json:"interest"`
	}
}

func (s *Server) HandleCreateInterest(ctx context.Context, in *CreateInterestRequest) (*InterestResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	i, err := s.Events.CreateInterest(ctx, in.Body.Name)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &InterestResponse{}
	out.Body.Interest = Interest{ID: string(i.ID), Name: i.Name}
	return out, nil
}
