package httpapi

import (
	"context"
	"net/http"

	"github.com/oapi-codegen/nullable"

	"github.com/luxeladies/community-api/internal/app/members"
	"github.com/luxeladies/community-api/internal/domain"
)

func (s *Server) HandleGetMe(ctx context.Context, _ *struct{}) (*MemberResponse, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return nil, err
	}
	out := &MemberResponse{}
	out.Body.Member = memberFromDomain(m)
	return out, nil
}

type UpdateMeRequest struct {
	Body struct {
		Handle    nullable.Nullable[string] `json:"handle,omitempty" nullable:"true"`
		Email     nullable.Nullable[string] `json:"email,omitempty" nullable:"true"`
		FirstName nullable.Nullable[string] `json:"firstName,omitempty" nullable:"true"`
		LastName  nullable.Nullable[string] `json:"lastName,omitempty" nullable:"true"`
		AvatarRef nullable.Nullable[string] `json:"avatarRef,omitempty" nullable:"true" doc:"null removes the avatar"`
	}
}

func (s *Server) HandleUpdateMe(ctx context.Context, in *UpdateMeRequest) (*MemberResponse, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return nil, err
	}
	b := in.Body
	updated, err := s.Members.UpdateProfile(ctx, m.ID, members.ProfilePatch{
		Handle:    memberOptional(b.Handle),
		Email:     memberOptional(b.Email),
		FirstName: memberOptional(b.FirstName),
		LastName:  memberOptional(b.LastName),
		AvatarRef: memberOptional(b.AvatarRef),
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &MemberResponse{}
	out.Body.Member = memberFromDomain(updated)
	return out, nil
}

func memberOptional[T any](n nullable.Nullable[T]) members.Optional[T] {
	switch {
	case !n.IsSpecified():
		return members.Unspecified[T]()
	case n.IsNull():
		return members.Null[T]()
	default:
		return members.Some(n.MustGet())
	}
}

type ChangePasswordRequest struct {
	Body struct {
		OldPassword     string `json:"oldPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
}

func (s *Server) HandleChangePassword(ctx context.Context, in *ChangePasswordRequest) (*struct{}, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Members.ChangePassword(ctx, m.ID, members.ChangePasswordInput{
		OldPassword:     in.Body.OldPassword,
		NewPassword:     in.Body.NewPassword,
		ConfirmPassword: in.Body.ConfirmPassword,
	}); err != nil {
		return nil, s.fail(ctx, err)
	}
	return &struct{}{}, nil
}

type QuestionnaireRequest struct {
	Body struct {
		FullName                string   `json:"fullName"`
		City                    string   `json:"city"`
		CanTravel               bool     `json:"canTravel,omitempty"`
		InterestIDs             []string `json:"interestIds,omitempty"`
		About                   string   `json:"about,omitempty"`
		HasChildren             bool     `json:"hasChildren,omitempty"`
		WantsEventsWithChildren bool     `json:"wantsEventsWithChildren,omitempty"`
		WhyJoin                 string   `json:"whyJoin,omitempty"`
		Instagram               *string  `json:"instagram,omitempty"`
		TikTok                  *string  `json:"tiktok,omitempty"`
		LinkedIn                *string  `json:"linkedin,omitempty"`
		ReferralSource          string   `json:"referralSource" enum:"instagram,tiktok,facebook,youtube,friend,google"`
		HasFriend               bool     `json:"hasFriend,omitempty"`
		FriendName              string   `json:"friendName,omitempty"`
	}
}

func (r *QuestionnaireRequest) toInput() members.QuestionnaireInput {
	b := r.Body
	ids := make([]domain.InterestID, 0, len(b.InterestIDs))
	for _, id := range b.InterestIDs {
		ids = append(ids, domain.InterestID(id))
	}
	return members.QuestionnaireInput{
		FullName:                b.FullName,
		City:                    b.City,
		CanTravel:               b.CanTravel,
		InterestIDs:             ids,
		About:                   b.About,
		HasChildren:             b.HasChildren,
		WantsEventsWithChildren: b.WantsEventsWithChildren,
		WhyJoin:                 b.WhyJoin,
		Instagram:               b.Instagram,
		TikTok:                  b.TikTok,
		LinkedIn:                b.LinkedIn,
		ReferralSource:          domain.ReferralSource(b.ReferralSource),
		HasFriend:               b.HasFriend,
		FriendName:              b.FriendName,
	}
}

type QuestionnaireResponse struct {
	Status int
	Body   struct {
		Questionnaire Questionnaire `json:"questionnaire"`
	}
}

func questionnaireResponse(q domain.Questionnaire, status int) *QuestionnaireResponse {
	out := &QuestionnaireResponse{Status: status}
	out.Body.Questionnaire = questionnaireFromDomain(q)
	return out
}

// Questionnaire routes only need a signed-in member: filling it in is what
// unlocks the event pages.
func (s *Server) HandleGetQuestionnaire(ctx context.Context, _ *struct{}) (*QuestionnaireResponse, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.Members.GetOrCreateQuestionnaire(ctx, m.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return questionnaireResponse(q, http.StatusOK), nil
}

func (s *Server) HandleSubmitQuestionnaire(ctx context.Context, in *QuestionnaireRequest) (*QuestionnaireResponse, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.Members.SubmitQuestionnaire(ctx, m.ID, in.toInput())
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return questionnaireResponse(q, http.StatusCreated), nil
}

func (s *Server) HandleUpdateQuestionnaire(ctx context.Context, in *QuestionnaireRequest) (*QuestionnaireResponse, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.Members.UpdateQuestionnaire(ctx, m.ID, in.toInput())
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return questionnaireResponse(q, http.StatusOK), nil
}

type SettingsRequest struct {
	Body NotificationSettings
}

type SettingsResponse struct {
	Body struct {
		Settings NotificationSettings `json:"settings"`
	}
}

func (s *Server) HandleGetSettings(ctx context.Context, _ *struct{}) (*SettingsResponse, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.Members.GetSettings(ctx, m.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &SettingsResponse{}
	out.Body.Settings = settingsFromDomain(st)
	return out, nil
}

func (s *Server) HandleUpdateSettings(ctx context.Context, in *SettingsRequest) (*SettingsResponse, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.Members.UpdateSettings(ctx, m.ID, in.Body.toDomain(m.ID))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &SettingsResponse{}
	out.Body.Settings = settingsFromDomain(st)
	return out, nil
}

type MyEventsResponse struct {
	Body struct {
		Upcoming []EventRef `json:"upcoming"`
		Past     []EventRef `json:"past"`
	}
}

func (s *Server) HandleMyEvents(ctx context.Context, _ *struct{}) (*MyEventsResponse, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return nil, err
	}
	mine, err := s.Registrations.ListMine(ctx, m.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &MyEventsResponse{}
	out.Body.Upcoming = eventRefsFromDomain(mine.Upcoming)
	out.Body.Past = eventRefsFromDomain(mine.Past)
	return out, nil
}
