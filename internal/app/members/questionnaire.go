package members

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/luxeladies/community-api/internal/app/notify"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/questionnairerepo"
)

// GetOrCreateQuestionnaire returns the member's questionnaire, creating an
// incomplete one with defaults drawn from the member record on first access.
func (s *Service) GetOrCreateQuestionnaire(ctx context.Context, id domain.MemberID) (domain.Questionnaire, error) {
	q, err := s.questionnaires.Get(ctx, id)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, questionnairerepo.ErrNotFound) {
		return domain.Questionnaire{}, err
	}

	m, err := s.load(ctx, id)
	if err != nil {
		return domain.Questionnaire{}, err
	}
	now := s.clk.Now()
	q = domain.Questionnaire{
		MemberID:       id,
		FullName:       toDomain(m).DisplayName(),
		City:           m.City,
		ReferralSource: domain.ReferralInstagram,
		Completed:      false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.questionnaires.Create(ctx, q); err != nil {
		if errors.Is(err, questionnairerepo.ErrAlreadyExists) {
			return s.questionnaires.Get(ctx, id)
		}
		return domain.Questionnaire{}, err
	}
	return q, nil
}

// SubmitQuestionnaire records the first complete set of answers.
// A member whose questionnaire is already completed gets a conflict.
func (s *Service) SubmitQuestionnaire(ctx context.Context, id domain.MemberID, in QuestionnaireInput) (domain.Questionnaire, error) {
	if _, err := s.load(ctx, id); err != nil {
		return domain.Questionnaire{}, err
	}
	existing, err := s.questionnaires.Get(ctx, id)
	found := err == nil
	if err != nil && !errors.Is(err, questionnairerepo.ErrNotFound) {
		return domain.Questionnaire{}, err
	}
	if found && existing.Completed {
		return domain.Questionnaire{}, &Error{
			Status:  http.StatusConflict,
			Code:    "QUESTIONNAIRE_ALREADY_SUBMITTED",
			Message: "the questionnaire has already been filled in",
		}
	}

	q, err := s.applyQuestionnaire(ctx, id, in)
	if err != nil {
		return domain.Questionnaire{}, err
	}
	now := s.clk.Now()
	q.UpdatedAt = now
	if !found {
		q.CreatedAt = now
		if err := s.questionnaires.Create(ctx, q); err != nil {
			if errors.Is(err, questionnairerepo.ErrAlreadyExists) {
				return domain.Questionnaire{}, &Error{
					Status:  http.StatusConflict,
					Code:    "QUESTIONNAIRE_ALREADY_SUBMITTED",
					Message: "the questionnaire has already been filled in",
				}
			}
			return domain.Questionnaire{}, err
		}
		return q, nil
	}
	q.CreatedAt = existing.CreatedAt
	if err := s.questionnaires.Save(ctx, q); err != nil {
		return domain.Questionnaire{}, err
	}
	return q, nil
}

// UpdateQuestionnaire replaces the member's answers and sends a
// questionnaire_updated email when the member opted in.
func (s *Service) UpdateQuestionnaire(ctx context.Context, id domain.MemberID, in QuestionnaireInput) (domain.Questionnaire, error) {
	existing, err := s.GetOrCreateQuestionnaire(ctx, id)
	if err != nil {
		return domain.Questionnaire{}, err
	}
	q, err := s.applyQuestionnaire(ctx, id, in)
	if err != nil {
		return domain.Questionnaire{}, err
	}
	q.CreatedAt = existing.CreatedAt
	q.UpdatedAt = s.clk.Now()
	if err := s.questionnaires.Save(ctx, q); err != nil {
		if errors.Is(err, questionnairerepo.ErrNotFound) {
			return domain.Questionnaire{}, memberNotFound()
		}
		return domain.Questionnaire{}, err
	}

	m, err := s.load(ctx, id)
	if err != nil {
		return domain.Questionnaire{}, err
	}
	settings, err := s.settingsFor(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("member_id", id).Warn("load notification settings failed")
	} else if settings.EmailQuestionnaireChanges {
		s.send(ctx, notify.Notification{
			Kind: notify.KindQuestionnaireUpdated,
			To:   m.Email,
			Data: notify.Greeting{RecipientName: toDomain(m).GreetingName()},
		})
	}
	return q, nil
}

// applyQuestionnaire validates the answers and returns a completed questionnaire.
func (s *Service) applyQuestionnaire(ctx context.Context, id domain.MemberID, in QuestionnaireInput) (domain.Questionnaire, error) {
	details := map[string]any{}

	fullName := domain.NormalizeHumanName(in.FullName)
	if fullName == "" {
		details["fullName"] = "must be non-empty"
	}
	city := domain.NormalizeHumanName(in.City)
	if city == "" {
		details["city"] = "must be non-empty"
	}
	about := strings.TrimSpace(in.About)
	if about == "" {
		details["about"] = "must be non-empty"
	}
	whyJoin := strings.TrimSpace(in.WhyJoin)
	if whyJoin == "" {
		details["whyJoin"] = "must be non-empty"
	}
	if !in.ReferralSource.Valid() {
		details["referralSource"] = "must be one of instagram, tiktok, facebook, youtube, friend, google"
	}
	friendName := ""
	if in.HasFriend {
		friendName = domain.NormalizeHumanName(in.FriendName)
		if friendName == "" {
			details["friendName"] = "is required when hasFriend is true"
		}
	}

	msg, err := s.checkInterests(ctx, in.InterestIDs)
	if err != nil {
		return domain.Questionnaire{}, err
	}
	if msg != "" {
		details["interestIds"] = msg
	}
	if len(details) > 0 {
		return domain.Questionnaire{}, validationError("invalid questionnaire", details)
	}

	return domain.Questionnaire{
		MemberID:                id,
		FullName:                fullName,
		City:                    city,
		CanTravel:               in.CanTravel,
		InterestIDs:             dedupInterests(in.InterestIDs),
		About:                   about,
		HasChildren:             in.HasChildren,
		WantsEventsWithChildren: in.WantsEventsWithChildren,
		WhyJoin:                 whyJoin,
		Instagram:               trimmedOrNil(in.Instagram),
		TikTok:                  trimmedOrNil(in.TikTok),
		LinkedIn:                trimmedOrNil(in.LinkedIn),
		ReferralSource:          in.ReferralSource,
		HasFriend:               in.HasFriend,
		FriendName:              friendName,
		Completed:               true,
	}, nil
}

// checkInterests returns a non-empty message when the selection is invalid.
func (s *Service) checkInterests(ctx context.Context, ids []domain.InterestID) (string, error) {
	if len(ids) == 0 {
		return "must select at least one interest", nil
	}
	if s.interests == nil {
		return "", nil
	}
	catalog, err := s.interests.ListInterests(ctx)
	if err != nil {
		return "", fmt.Errorf("list interests: %w", err)
	}
	known := make(map[domain.InterestID]struct{}, len(catalog))
	for _, i := range catalog {
		known[i.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Sprintf("unknown interest %q", id), nil
		}
	}
	return "", nil
}

func dedupInterests(ids []domain.InterestID) []domain.InterestID {
	seen := make(map[domain.InterestID]struct{}, len(ids))
	out := make([]domain.InterestID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
