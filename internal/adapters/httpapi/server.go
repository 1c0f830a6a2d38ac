package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/luxeladies/community-api/internal/app/admin"
	"github.com/luxeladies/community-api/internal/app/events"
	"github.com/luxeladies/community-api/internal/app/members"
	"github.com/luxeladies/community-api/internal/app/registrations"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/platform/auth/session"
	"github.com/luxeladies/community-api/internal/platform/log"
)

// Server implements the API operations on top of the application services.
type Server struct {
	Members       *members.Service
	Registrations *registrations.Service
	Events        *events.Service
	Admin         *admin.Service
	Sessions      *session.Manager

	// CookieSecure marks the session cookie Secure.
	CookieSecure bool
	// Location interprets calendar-day query parameters. Defaults to UTC.
	Location *time.Location
	Logger   *log.Logger
}

func (s *Server) logger() *log.Logger {
	if s.Logger == nil {
		return log.Discard()
	}
	return s.Logger
}

func (s *Server) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// requireMember returns the signed-in member. Sessions of deleted, inactive
// or not yet approved members are refused.
func (s *Server) requireMember(ctx context.Context) (domain.Member, error) {
	id, ok := MemberIDFromContext(ctx)
	if !ok {
		return domain.Member{}, unauthorized(ctx, "missing or invalid session")
	}
	m, err := s.Members.GetMember(ctx, id)
	if err != nil {
		var ae *members.Error
		if errors.As(err, &ae) && ae.Status == http.StatusNotFound {
			return domain.Member{}, unauthorized(ctx, "missing or invalid session")
		}
		return domain.Member{}, s.fail(ctx, err)
	}
	if !m.IsActive {
		return domain.Member{}, forbidden(ctx, "MEMBER_INACTIVE", "account is inactive")
	}
	if !m.IsApproved && !m.IsSuperuser {
		return domain.Member{}, forbidden(ctx, "MEMBER_PENDING_APPROVAL", "account is awaiting approval")
	}
	return m, nil
}

func (s *Server) requireAdmin(ctx context.Context) (domain.Member, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return domain.Member{}, err
	}
	if !m.IsSuperuser {
		return domain.Member{}, forbidden(ctx, "FORBIDDEN", "operator access required")
	}
	return m, nil
}

// requireEventAccess is requireMember plus the completed-questionnaire rule.
func (s *Server) requireEventAccess(ctx context.Context) (domain.Member, error) {
	m, err := s.requireMember(ctx)
	if err != nil {
		return domain.Member{}, err
	}
	if err := s.Events.CheckAccess(ctx, m.ID); err != nil {
		return domain.Member{}, s.fail(ctx, err)
	}
	return m, nil
}

// fail maps application errors onto the error envelope. Anything unexpected
// is logged and reported as a 500 without internals.
func (s *Server) fail(ctx context.Context, err error) error {
	var (
		apiErr *APIError
		me     *members.Error
		re     *registrations.Error
		ee     *events.Error
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &me):
		return newAPIError(ctx, me.Status, me.Code, me.Message, me.Details)
	case errors.As(err, &re):
		return newAPIError(ctx, re.Status, re.Code, re.Message, re.Details)
	case errors.As(err, &ee):
		return newAPIError(ctx, ee.Status, ee.Code, ee.Message, ee.Details)
	}
	s.logger().WithError(err).WithField("request_id", middleware.GetReqID(ctx)).Error("request failed")
	return newAPIError(ctx, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
}
