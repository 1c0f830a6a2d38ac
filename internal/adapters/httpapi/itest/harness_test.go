package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/luxeladies/community-api/internal/adapters/httpapi"
	"github.com/luxeladies/community-api/internal/adapters/memory"
	memclock "github.com/luxeladies/community-api/internal/adapters/memory/clock"
	"github.com/luxeladies/community-api/internal/adapters/memory/outbox"
	pgeventrepo "github.com/luxeladies/community-api/internal/adapters/postgres/eventrepo"
	pgmemberrepo "github.com/luxeladies/community-api/internal/adapters/postgres/memberrepo"
	pgquestionnairerepo "github.com/luxeladies/community-api/internal/adapters/postgres/questionnairerepo"
	pgregistrationrepo "github.com/luxeladies/community-api/internal/adapters/postgres/registrationrepo"
	postgres_testutil "github.com/luxeladies/community-api/internal/adapters/postgres/testutil"
	"github.com/luxeladies/community-api/internal/adapters/sqlite"
	"github.com/luxeladies/community-api/internal/app/admin"
	"github.com/luxeladies/community-api/internal/app/events"
	"github.com/luxeladies/community-api/internal/app/members"
	"github.com/luxeladies/community-api/internal/app/notify"
	"github.com/luxeladies/community-api/internal/app/registrations"
	"github.com/luxeladies/community-api/internal/platform/auth/password"
	"github.com/luxeladies/community-api/internal/platform/auth/session"
	eventrepoport "github.com/luxeladies/community-api/internal/ports/out/eventrepo"
	memberrepoport "github.com/luxeladies/community-api/internal/ports/out/memberrepo"
	questionnairerepoport "github.com/luxeladies/community-api/internal/ports/out/questionnairerepo"
	registrationrepoport "github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendSQLite   backend = "sqlite"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "sqlite":
		return []backend{backendSQLite}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendSQLite, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|sqlite|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	box     *outbox.Outbox
	members *members.Service

	// suffix keeps handles and names unique on a shared Postgres database.
	suffix string
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Now().UTC().Truncate(time.Second))

	var (
		memberRepo        memberrepoport.Repository
		questionnaireRepo questionnairerepoport.Repository
		eventRepo         eventrepoport.Repository
		registrationRepo  registrationrepoport.Repository
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		memberRepo = pgmemberrepo.NewRepo(pool)
		questionnaireRepo = pgquestionnairerepo.NewRepo(pool)
		eventRepo = pgeventrepo.NewRepo(pool)
		registrationRepo = pgregistrationrepo.NewRepo(pool)
	case backendSQLite:
		db, err := sqlite.Open(":memory:")
		if err != nil {
			t.Fatalf("sqlite.Open: %v", err)
		}
		t.Cleanup(func() { _ = sqlite.Close(db) })
		memberRepo = sqlite.NewMemberRepo(db)
		questionnaireRepo = sqlite.NewQuestionnaireRepo(db)
		eventRepo = sqlite.NewEventRepo(db)
		registrationRepo = sqlite.NewRegistrationRepo(db)
	case backendMemory:
		store := memory.NewStore(clk)
		memberRepo = store.Members
		questionnaireRepo = store.Questionnaires
		eventRepo = store.Events
		registrationRepo = store.Registrations
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	box := outbox.New()
	renderer, err := notify.NewRenderer(notify.RendererOptions{SiteName: "LuxeLadies"})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	mail := notify.NewDispatcher(renderer, box, "noreply@example.com", nil, nil)

	memberSvc := members.NewService(members.Deps{
		Members:        memberRepo,
		Questionnaires: questionnaireRepo,
		Interests:      eventRepo,
		Clock:          clk,
		Mail:           mail,
	})
	memberSvc.Hasher = password.Hasher{Cost: bcrypt.MinCost}

	api := &httpapi.Server{
		Members: memberSvc,
		Registrations: registrations.NewService(registrations.Deps{
			Members:       memberRepo,
			Events:        eventRepo,
			Registrations: registrationRepo,
			Clock:         clk,
			Mail:          mail,
		}),
		Events: events.NewService(events.Deps{
			Events:         eventRepo,
			Registrations:  registrationRepo,
			Members:        memberRepo,
			Questionnaires: questionnaireRepo,
			Clock:          clk,
		}),
		Admin: admin.NewService(admin.Deps{
			Members:       memberRepo,
			Events:        eventRepo,
			Registrations: registrationRepo,
		}),
		Sessions: session.NewManager(session.Config{Secret: "itest-secret", Issuer: "itest", TTL: time.Hour}, clk),
	}

	srv := httptest.NewServer(httpapi.NewRouter(api))
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		box:     box,
		members: memberSvc,
		suffix:  uuid.NewString()[:8],
	}
}

// name returns base made unique for this server.
func (s *testServer) name(base string) string {
	return base + s.suffix
}

// bootstrapAdmin creates a superuser directly, the way the server does at startup.
func (s *testServer) bootstrapAdmin(t *testing.T) (handle, pass string) {
	t.Helper()
	handle, pass = s.name("admin"), "admin-pass"
	if _, _, err := s.members.EnsureSuperuser(context.Background(), handle, handle+"@example.com", pass); err != nil {
		t.Fatalf("EnsureSuperuser: %v", err)
	}
	return handle, pass
}

func (s *testServer) login(t *testing.T, login, pass string) string {
	t.Helper()
	status, body, _ := s.doJSON(t, http.MethodPost, "/auth/login", "", map[string]any{"login": login, "password": pass})
	if status != http.StatusOK {
		t.Fatalf("login %s status=%d body=%s", login, status, string(body))
	}
	return mustUnmarshal[struct {
		Token string `json:"token"`
	}](t, body).Token
}

func (s *testServer) doJSON(t *testing.T, method string, path string, token string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.baseURL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string  `json:"code"`
		Message   string  `json:"message"`
		RequestID *string `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
