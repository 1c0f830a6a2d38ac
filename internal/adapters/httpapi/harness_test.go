package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/luxeladies/community-api/internal/adapters/memory"
	memclock "github.com/luxeladies/community-api/internal/adapters/memory/clock"
	"github.com/luxeladies/community-api/internal/adapters/memory/outbox"
	"github.com/luxeladies/community-api/internal/app/admin"
	"github.com/luxeladies/community-api/internal/app/events"
	"github.com/luxeladies/community-api/internal/app/members"
	"github.com/luxeladies/community-api/internal/app/notify"
	"github.com/luxeladies/community-api/internal/app/registrations"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/platform/auth/password"
	"github.com/luxeladies/community-api/internal/platform/auth/session"
)

type testEnv struct {
	srv      *httptest.Server
	clk      *memclock.ManualClock
	store    *memory.Store
	box      *outbox.Outbox
	members  *members.Service
	events   *events.Service
	sessions *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	store := memory.NewStore(clk)
	box := outbox.New()
	renderer, err := notify.NewRenderer(notify.RendererOptions{SiteName: "LuxeLadies"})
	if err != nil {
		t.Fatalf("NewRenderer() err=%v", err)
	}
	mail := notify.NewDispatcher(renderer, box, "noreply@example.com", nil, nil)

	memberSvc := members.NewService(members.Deps{
		Members:        store.Members,
		Questionnaires: store.Questionnaires,
		Interests:      store.Events,
		Clock:          clk,
		Mail:           mail,
	})
	memberSvc.Hasher = password.Hasher{Cost: bcrypt.MinCost}
	eventSvc := events.NewService(events.Deps{
		Events:         store.Events,
		Registrations:  store.Registrations,
		Members:        store.Members,
		Questionnaires: store.Questionnaires,
		Clock:          clk,
	})
	regSvc := registrations.NewService(registrations.Deps{
		Members:       store.Members,
		Events:        store.Events,
		Registrations: store.Registrations,
		Clock:         clk,
		Mail:          mail,
	})
	adminSvc := admin.NewService(admin.Deps{
		Members:       store.Members,
		Events:        store.Events,
		Registrations: store.Registrations,
	})
	sessions := session.NewManager(session.Config{Secret: "test-secret", Issuer: "test", TTL: time.Hour}, clk)

	srv := httptest.NewServer(NewRouter(&Server{
		Members:       memberSvc,
		Registrations: regSvc,
		Events:        eventSvc,
		Admin:         adminSvc,
		Sessions:      sessions,
	}))
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:      srv,
		clk:      clk,
		store:    store,
		box:      box,
		members:  memberSvc,
		events:   eventSvc,
		sessions: sessions,
	}
}

// register creates a working adult member, approved when asked.
func (e *testEnv) register(t *testing.T, handle string, approve bool) domain.Member {
	t.Helper()
	return e.registerNamed(t, handle, "Ivana", "Petrova", approve)
}

func (e *testEnv) registerNamed(t *testing.T, handle, first, last string, approve bool) domain.Member {
	t.Helper()
	ctx := context.Background()
	m, err := e.members.Register(ctx, members.RegisterInput{
		Handle:          handle,
		FirstName:       first,
		LastName:        last,
		Email:           handle + "@example.com",
		Age:             27,
		City:            "Sofia",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
		Works:           true,
		WorkPlace:       "Studio",
	})
	if err != nil {
		t.Fatalf("Register(%s) err=%v", handle, err)
	}
	if !approve {
		return m
	}
	res, err := e.members.Approve(ctx, m.ID)
	if err != nil || !res.Approved {
		t.Fatalf("Approve(%s)=%+v err=%v", handle, res, err)
	}
	return res.Member
}

func (e *testEnv) superuser(t *testing.T) domain.Member {
	t.Helper()
	m, _, err := e.members.EnsureSuperuser(context.Background(), "admin", "admin@example.com", "admin-pass")
	if err != nil {
		t.Fatalf("EnsureSuperuser() err=%v", err)
	}
	return m
}

func (e *testEnv) token(t *testing.T, id domain.MemberID) string {
	t.Helper()
	tok, err := e.sessions.Issue(id)
	if err != nil {
		t.Fatalf("Issue() err=%v", err)
	}
	return tok.Value
}

func (e *testEnv) interest(t *testing.T, name string) domain.Interest {
	t.Helper()
	i, err := e.events.CreateInterest(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateInterest(%s) err=%v", name, err)
	}
	return i
}

func (e *testEnv) completeQuestionnaire(t *testing.T, id domain.MemberID, interest domain.InterestID) {
	t.Helper()
	_, err := e.members.SubmitQuestionnaire(context.Background(), id, members.QuestionnaireInput{
		FullName:       "Ivana Petrova",
		City:           "Sofia",
		InterestIDs:    []domain.InterestID{interest},
		About:          "Loves wine",
		WhyJoin:        "New friends",
		ReferralSource: domain.ReferralInstagram,
	})
	if err != nil {
		t.Fatalf("SubmitQuestionnaire() err=%v", err)
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			r = bytes.NewReader(raw)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
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
	resp, err := e.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorEnvelope struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestID *string        `json:"requestId"`
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
		t.Fatalf("status=%d, want %d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) errorEnvelope {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorEnvelope](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q, want %q body=%s", got.Error.Code, wantCode, string(body))
	}
	return got
}
