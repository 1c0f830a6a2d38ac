package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/platform/auth/session"
)

// TokenVerifier resolves a session token to a member id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.MemberID, error)
}

// NewAuthMiddleware reads the session from Authorization: Bearer <token> or
// the auth_token cookie and stores the member id in the request context.
//
// Requests without a valid session pass through anonymously; operations that
// need a member reject them with 401.
func NewAuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := v.Verify(r.Context(), raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithMemberID(r.Context(), id)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	const prefix = "Bearer "
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, prefix) {
		if raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix)); raw != "" {
			return raw
		}
	}
	if c, err := r.Cookie(session.CookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
