package members

import (
	"context"
	"errors"

	"github.com/luxeladies/community-api/internal/app/notify"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
)

// GetSettings returns the member's notification settings, storing the defaults
// when none exist yet.
func (s *Service) GetSettings(ctx context.Context, id domain.MemberID) (domain.NotificationSettings, error) {
	if _, err := s.load(ctx, id); err != nil {
		return domain.NotificationSettings{}, err
	}
	return s.settingsFor(ctx, id)
}

// UpdateSettings stores all six flags and confirms the change by email.
func (s *Service) UpdateSettings(ctx context.Context, id domain.MemberID, in domain.NotificationSettings) (domain.NotificationSettings, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return domain.NotificationSettings{}, err
	}
	in.MemberID = id
	if err := s.repo.SaveSettings(ctx, in); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.NotificationSettings{}, memberNotFound()
		}
		return domain.NotificationSettings{}, err
	}
	s.send(ctx, notify.Notification{
		Kind: notify.KindNotificationsUpdated,
		To:   m.Email,
		Data: notify.NotificationsUpdated{
			RecipientName: toDomain(m).GreetingName(),
			Settings:      in,
		},
	})
	return in, nil
}

func (s *Service) settingsFor(ctx context.Context, id domain.MemberID) (domain.NotificationSettings, error) {
	settings, err := s.repo.GetSettings(ctx, id)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, memberrepo.ErrNotFound) {
		return domain.NotificationSettings{}, err
	}
	settings = domain.DefaultNotificationSettings(id)
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.NotificationSettings{}, memberNotFound()
		}
		return domain.NotificationSettings{}, err
	}
	return settings, nil
}
