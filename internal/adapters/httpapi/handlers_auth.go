package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/luxeladies/community-api/internal/app/members"
	"github.com/luxeladies/community-api/internal/platform/auth/session"
)

type RegisterRequest struct {
	Body struct {
		Handle          string `json:"handle" doc:"Public handle, at most 30 characters"`
		FirstName       string `json:"firstName"`
		LastName        string `json:"lastName"`
		Email           string `json:"email"`
		Age             int    `json:"age" doc:"Must be at least 18"`
		City            string `json:"city"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
		Studies         bool   `json:"studies,omitempty"`
		EducationPlace  string `json:"educationPlace,omitempty"`
		Works           bool   `json:"works,omitempty"`
		WorkPlace       string `json:"workPlace,omitempty"`
		About           string `json:"about,omitempty"`
	}
}

type MemberResponse struct {
	Body struct {
		Member Member `json:"member"`
	}
}

func (s *Server) HandleRegister(ctx context.Context, in *RegisterRequest) (*MemberResponse, error) {
	b := in.Body
	m, err := s.Members.Register(ctx, members.RegisterInput{
		Handle:          b.Handle,
		FirstName:       b.FirstName,
		LastName:        b.LastName,
		Email:           b.Email,
		Age:             b.Age,
		City:            b.City,
		Password:        b.Password,
		ConfirmPassword: b.ConfirmPassword,
		Studies:         b.Studies,
		EducationPlace:  b.EducationPlace,
		Works:           b.Works,
		WorkPlace:       b.WorkPlace,
		About:           b.About,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &MemberResponse{}
	out.Body.Member = memberFromDomain(m)
	return out, nil
}

type LoginRequest struct {
	Body struct {
		Login    string `json:"login" doc:"Handle or email"`
		Password string `json:"password"`
	}
}

type LoginResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
		Member    Member    `json:"member"`
	}
}

func (s *Server) HandleLogin(ctx context.Context, in *LoginRequest) (*LoginResponse, error) {
	m, err := s.Members.Authenticate(ctx, in.Body.Login, in.Body.Password)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	tok, err := s.Sessions.Issue(m.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	out := &LoginResponse{
		SetCookie: http.Cookie{
			Name:     session.CookieName,
			Value:    tok.Value,
			Path:     "/",
			Expires:  tok.ExpiresAt,
			HttpOnly: true,
			Secure:   s.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		},
	}
	out.Body.Token = tok.Value
	out.Body.ExpiresAt = tok.ExpiresAt
	out.Body.Member = memberFromDomain(m)
	return out, nil
}

type LogoutResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
}

func (s *Server) HandleLogout(_ context.Context, _ *struct{}) (*LogoutResponse, error) {
	return &LogoutResponse{
		SetCookie: http.Cookie{
			Name:     session.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		},
	}, nil
}
