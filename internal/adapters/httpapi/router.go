package httpapi

import (
	"net/http"
	"reflect"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/luxeladies/community-api/internal/platform/log"
)

const (
	apiTitle   = "LuxeLadies Community API"
	apiVersion = "1.0.0"
)

var sessionSecurity = []map[string][]string{{"cookieAuth": {}}, {"bearerAuth": {}}}

func withSecurity(o *huma.Operation) { o.Security = sessionSecurity }

func withStatus(status int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.DefaultStatus = status }
}

// NewRouter constructs the API HTTP router.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger()))
	r.Use(middleware.Recoverer)
	r.Use(NewAuthMiddleware(s.Sessions))

	// Used by infra checks; not part of the OpenAPI document.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	cfg := huma.DefaultConfig(apiTitle, apiVersion)
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {Type: "apiKey", In: "cookie", Name: "auth_token"},
		"bearerAuth": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}
	api := humachi.New(r, cfg)
	// Tri-state patch fields are plain strings on the wire.
	api.OpenAPI().Components.Schemas.RegisterTypeAlias(reflect.TypeOf(nullable.Nullable[string]{}), reflect.TypeOf(""))

	registerRoutes(api, s)
	return r
}

func registerRoutes(api huma.API, s *Server) {
	// Public.
	huma.Post(api, "/auth/register", s.HandleRegister, withStatus(http.StatusCreated))
	huma.Post(api, "/auth/login", s.HandleLogin)
	huma.Post(api, "/auth/logout", s.HandleLogout, withStatus(http.StatusNoContent))
	huma.Get(api, "/interests", s.HandleListInterests)
	huma.Get(api, "/events/past", s.HandlePastEvents)

	// Signed-in members.
	huma.Get(api, "/members/me", s.HandleGetMe, withSecurity)
	huma.Patch(api, "/members/me", s.HandleUpdateMe, withSecurity)
	huma.Post(api, "/members/me/password", s.HandleChangePassword, withSecurity, withStatus(http.StatusNoContent))
	huma.Get(api, "/members/me/questionnaire", s.HandleGetQuestionnaire, withSecurity)
	huma.Post(api, "/members/me/questionnaire", s.HandleSubmitQuestionnaire, withSecurity, withStatus(http.StatusCreated))
	huma.Put(api, "/members/me/questionnaire", s.HandleUpdateQuestionnaire, withSecurity)
	huma.Get(api, "/members/me/notification-settings", s.HandleGetSettings, withSecurity)
	huma.Put(api, "/members/me/notification-settings", s.HandleUpdateSettings, withSecurity)
	huma.Get(api, "/members/me/events", s.HandleMyEvents, withSecurity)
	huma.Get(api, "/events", s.HandleListEvents, withSecurity)
	huma.Get(api, "/events/recommended", s.HandleRecommendedEvents, withSecurity)
	huma.Get(api, "/events/{eventId}", s.HandleGetEvent, withSecurity)
	huma.Post(api, "/events/{eventId}/registrations", s.HandleRegisterForEvent, withSecurity, withStatus(http.StatusCreated))

	// Operators.
	huma.Get(api, "/admin/dashboard", s.HandleDashboard, withSecurity)
	huma.Get(api, "/admin/members", s.HandleListMembers, withSecurity)
	huma.Post(api, "/admin/members/{memberId}/approve", s.HandleApproveMember, withSecurity)
	huma.Post(api, "/admin/members/{memberId}/reject", s.HandleRejectMember, withSecurity)
	huma.Delete(api, "/admin/members/{memberId}", s.HandleDeleteMember, withSecurity, withStatus(http.StatusNoContent))
	huma.Get(api, "/admin/registrations", s.HandleListRegistrations, withSecurity)
	huma.Post(api, "/admin/registrations/{registrationId}/approve", s.HandleApproveRegistration, withSecurity)
	huma.Post(api, "/admin/registrations/{registrationId}/reject", s.HandleRejectRegistration, withSecurity)
	huma.Post(api, "/admin/events", s.HandleCreateEvent, withSecurity, withStatus(http.StatusCreated))
	huma.Put(api, "/admin/events/{eventId}", s.HandleUpdateEvent, withSecurity)
	huma.Post(api, "/admin/interests", s.HandleCreateInterest, withSecurity, withStatus(http.StatusCreated))
}

func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				l.LogRequest(r.Method, r.URL.Path, middleware.GetReqID(r.Context()), r.RemoteAddr, ww.Status(), time.Since(start).Milliseconds())
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
