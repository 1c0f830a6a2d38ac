package registrations

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luxeladies/community-api/internal/adapters/memory"
	memclock "github.com/luxeladies/community-api/internal/adapters/memory/clock"
	"github.com/luxeladies/community-api/internal/adapters/memory/outbox"
	"github.com/luxeladies/community-api/internal/app/notify"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
	"github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
)

var t0 = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	svc   *Service
	store *memory.Store
	box   *outbox.Outbox
	clk   *memclock.ManualClock
}

func newHarness(t *testing.T) harness {
	t.Helper()
	clk := memclock.NewManualClock(t0)
	store := memory.NewStore(clk)
	return newHarnessWith(t, clk, store, store.Registrations)
}

func newHarnessWith(t *testing.T, clk *memclock.ManualClock, store *memory.Store, regs registrationrepo.Repository) harness {
	t.Helper()
	renderer, err := notify.NewRenderer(notify.RendererOptions{SiteName: "LuxeLadies"})
	if err != nil {
		t.Fatalf("NewRenderer() err=%v", err)
	}
	box := outbox.New()
	svc := NewService(Deps{
		Members:       store.Members,
		Events:        store.Events,
		Registrations: regs,
		Clock:         clk,
		Mail:          notify.NewDispatcher(renderer, box, "noreply@example.com", nil, nil),
	})
	return harness{svc: svc, store: store, box: box, clk: clk}
}

func (h harness) addMember(t *testing.T, id, email string, approved bool) {
	t.Helper()
	m := memberrepo.Member{
		ID: domain.MemberID(id), Handle: id, Email: email, FirstName: "Ana", LastName: "Ivanova",
		Age: 30, Works: true, IsApproved: approved, IsActive: true, CreatedAt: t0, UpdatedAt: t0,
	}
	if err := h.store.Members.Create(context.Background(), m, domain.DefaultNotificationSettings(m.ID)); err != nil {
		t.Fatalf("Create member err=%v", err)
	}
}

func (h harness) addEvent(t *testing.T, id string, startsIn time.Duration, kidFriendly bool) domain.Event {
	t.Helper()
	e := domain.Event{
		ID: domain.EventID(id), Title: "Picnic " + id, StartsAt: t0.Add(startsIn), City: "Sofia",
		KidFriendly: kidFriendly, Capacity: 10, Price: decimal.RequireFromString("15.00"),
	}
	if err := h.store.Events.Create(context.Background(), e); err != nil {
		t.Fatalf("Create event err=%v", err)
	}
	return e
}

func wantAppError(t *testing.T, err error, status int, code string) *Error {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != status || ae.Code != code {
		t.Fatalf("err=%v (type=%T), want %s %d", err, err, code, status)
	}
	return ae
}

func TestService_RegisterIsIdempotent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.addMember(t, "m1", "ana@example.com", true)
	h.addEvent(t, "e1", 48*time.Hour, false)

	first, err := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "e1", MemberID: "m1"})
	if err != nil {
		t.Fatalf("RegisterForEvent() err=%v", err)
	}
	if !first.Created || first.Registration.Status != domain.RegistrationPending || first.Registration.FullName != "Ana Ivanova" {
		t.Fatalf("first=%+v", first)
	}
	second, err := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "e1", MemberID: "m1", FullName: "Someone Else"})
	if err != nil {
		t.Fatalf("second RegisterForEvent() err=%v", err)
	}
	if second.Created || second.Registration.ID != first.Registration.ID || second.Registration.FullName != "Ana Ivanova" {
		t.Fatalf("second=%+v, want existing row unchanged", second)
	}
	regs, _ := h.store.Registrations.ListByMember(ctx, "m1")
	if len(regs) != 1 {
		t.Fatalf("registrations=%d, want 1", len(regs))
	}
}

type racingRepo struct {
	registrationrepo.Repository
	lookups atomic.Int32
}

// GetByEventAndMember hides the row on the first lookup, as if a concurrent
// request inserted it between the lookup and the insert.
func (r *racingRepo) GetByEventAndMember(ctx context.Context, e domain.EventID, m domain.MemberID) (domain.EventRegistration, error) {
	if r.lookups.Add(1) == 1 {
		return domain.EventRegistration{}, registrationrepo.ErrNotFound
	}
	return r.Repository.GetByEventAndMember(ctx, e, m)
}

func TestService_RegisterRaceReturnsExistingRow(t *testing.T) {
	t.Parallel()
	clk := memclock.NewManualClock(t0)
	store := memory.NewStore(clk)
	h := newHarnessWith(t, clk, store, &racingRepo{Repository: store.Registrations})
	ctx := context.Background()
	h.addMember(t, "m1", "ana@example.com", true)
	h.addEvent(t, "e1", time.Hour, false)

	winner := domain.EventRegistration{ID: "r-winner", EventID: "e1", MemberID: "m1", Status: domain.RegistrationPending}
	if err := store.Registrations.Create(ctx, winner); err != nil {
		t.Fatalf("Create() err=%v", err)
	}
	res, err := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "e1", MemberID: "m1"})
	if err != nil {
		t.Fatalf("RegisterForEvent() err=%v", err)
	}
	if res.Created || res.Registration.ID != "r-winner" {
		t.Fatalf("result=%+v, want existing winner", res)
	}
}

func TestService_RegisterRejectsStartedEvent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.addMember(t, "m1", "ana@example.com", true)
	h.addEvent(t, "now", 0, false)

	_, err := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "now", MemberID: "m1"})
	wantAppError(t, err, 409, "EVENT_CLOSED")
	if _, err := h.store.Registrations.GetByEventAndMember(ctx, "now", "m1"); !errors.Is(err, registrationrepo.ErrNotFound) {
		t.Fatalf("registration stored for closed event, err=%v", err)
	}
}

func TestService_RegisterRequiresApprovedMember(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.addMember(t, "pending", "p@example.com", false)
	h.addEvent(t, "e1", time.Hour, false)

	_, err := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "e1", MemberID: "pending"})
	wantAppError(t, err, 403, "MEMBER_NOT_APPROVED")
	_, err = h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "missing", MemberID: "pending"})
	wantAppError(t, err, 403, "MEMBER_NOT_APPROVED")

	h.addMember(t, "ok", "ok@example.com", true)
	_, err = h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "missing", MemberID: "ok"})
	wantAppError(t, err, 404, "EVENT_NOT_FOUND")
}

func TestService_KidFriendlyEnforcement(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.addMember(t, "m1", "ana@example.com", true)
	h.addMember(t, "m2", "bea@example.com", true)
	h.addEvent(t, "kids", 24*time.Hour, true)
	h.addEvent(t, "adults", 24*time.Hour, false)

	_, err := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "kids", MemberID: "m1"})
	ae := wantAppError(t, err, 422, "VALIDATION_ERROR")
	if _, ok := ae.Details["childName"]; !ok {
		t.Fatalf("details=%v, want childName", ae.Details)
	}
	if _, ok := ae.Details["childAge"]; !ok {
		t.Fatalf("details=%v, want childAge", ae.Details)
	}
	if _, err := h.store.Registrations.GetByEventAndMember(ctx, "kids", "m1"); !errors.Is(err, registrationrepo.ErrNotFound) {
		t.Fatalf("registration stored without child details, err=%v", err)
	}

	name, age := "Mila", 6
	res, err := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "kids", MemberID: "m2", ChildName: &name, ChildAge: &age})
	if err != nil {
		t.Fatalf("RegisterForEvent(kids) err=%v", err)
	}
	if res.Registration.ChildName == nil || *res.Registration.ChildName != "Mila" || *res.Registration.ChildAge != 6 {
		t.Fatalf("registration=%+v, want child details", res.Registration)
	}

	res, err = h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "adults", MemberID: "m1", ChildName: &name, ChildAge: &age})
	if err != nil {
		t.Fatalf("RegisterForEvent(adults) err=%v", err)
	}
	if res.Registration.ChildName != nil || res.Registration.ChildAge != nil {
		t.Fatalf("registration=%+v, want child fields cleared", res.Registration)
	}
}

func TestService_StatusChangeNotifiesExactlyOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.addMember(t, "m1", "ana@example.com", true)
	ev := h.addEvent(t, "e1", 72*time.Hour, false)
	res, _ := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "e1", MemberID: "m1"})
	if n := len(h.box.Messages()); n != 0 {
		t.Fatalf("emails after pending creation=%d, want 0", n)
	}

	change, err := h.svc.Approve(ctx, res.Registration.ID)
	if err != nil {
		t.Fatalf("Approve() err=%v", err)
	}
	if !change.Changed || !change.Notified || change.Previous != domain.RegistrationPending {
		t.Fatalf("change=%+v", change)
	}
	msgs := h.box.Messages()
	if len(msgs) != 1 {
		t.Fatalf("emails=%d, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Subject, ev.Title) || !strings.Contains(msgs[0].Text, ev.Title) {
		t.Fatalf("email=%+v, want event title", msgs[0])
	}
	if !strings.Contains(msgs[0].Text, "ana@example.com") {
		t.Fatalf("text=%q, want registrant email", msgs[0].Text)
	}

	again, err := h.svc.SetStatus(ctx, res.Registration.ID, domain.RegistrationApproved)
	if err != nil {
		t.Fatalf("repeat SetStatus() err=%v", err)
	}
	if again.Changed || again.Message != AlreadyInStateMessage {
		t.Fatalf("repeat=%+v, want unchanged", again)
	}
	if n := len(h.box.Messages()); n != 1 {
		t.Fatalf("emails after repeat=%d, want 1", n)
	}

	rejected, err := h.svc.Reject(ctx, res.Registration.ID)
	if err != nil || !rejected.Notified {
		t.Fatalf("Reject()=(%+v, %v)", rejected, err)
	}
	msgs = h.box.Messages()
	if len(msgs) != 2 || !strings.HasPrefix(msgs[1].Subject, "Отказ за участие:") {
		t.Fatalf("emails=%+v, want rejection second", msgs)
	}
}

func TestService_SetStatusRejectsPendingTarget(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.svc.SetStatus(context.Background(), "r1", domain.RegistrationPending)
	wantAppError(t, err, 422, "VALIDATION_ERROR")
	_, err = h.svc.SetStatus(context.Background(), "r1", domain.RegistrationApproved)
	wantAppError(t, err, 404, "REGISTRATION_NOT_FOUND")
}

func TestService_StatusChangeSuppressed(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.addMember(t, "noemail", "", true)
	h.addMember(t, "optout", "o@example.com", true)
	h.addEvent(t, "e1", 72*time.Hour, false)

	s := domain.DefaultNotificationSettings("optout")
	s.EmailEventStatusChanges = false
	_ = h.store.Members.SaveSettings(ctx, s)

	for _, id := range []domain.MemberID{"noemail", "optout"} {
		res, err := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "e1", MemberID: id})
		if err != nil {
			t.Fatalf("RegisterForEvent(%s) err=%v", id, err)
		}
		change, err := h.svc.Approve(ctx, res.Registration.ID)
		if err != nil || !change.Changed || change.Notified {
			t.Fatalf("Approve(%s)=(%+v, %v), want changed without email", id, change, err)
		}
	}
	if n := len(h.box.Messages()); n != 0 {
		t.Fatalf("emails=%d, want 0", n)
	}
}

func TestService_StatusChangeDeliveryFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.addMember(t, "m1", "ana@example.com", true)
	h.addEvent(t, "e1", 72*time.Hour, false)
	res, _ := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: "e1", MemberID: "m1"})

	h.box.FailWith(errors.New("smtp down"))
	change, err := h.svc.Approve(ctx, res.Registration.ID)
	if err != nil {
		t.Fatalf("Approve() err=%v, want nil despite delivery failure", err)
	}
	if !change.Changed || change.Notified {
		t.Fatalf("change=%+v", change)
	}
	got, _ := h.store.Registrations.GetByID(ctx, res.Registration.ID)
	if got.Status != domain.RegistrationApproved {
		t.Fatalf("status=%s, want approved", got.Status)
	}
}

func TestService_ListMine(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.addMember(t, "m1", "ana@example.com", true)
	h.addEvent(t, "soon", 2*time.Hour, false)
	h.addEvent(t, "later", 48*time.Hour, false)
	h.addEvent(t, "pending", 24*time.Hour, false)

	for _, id := range []domain.EventID{"later", "soon", "pending"} {
		res, err := h.svc.RegisterForEvent(ctx, RegisterInput{EventID: id, MemberID: "m1"})
		if err != nil {
			t.Fatalf("RegisterForEvent(%s) err=%v", id, err)
		}
		if id != "pending" {
			if _, err := h.svc.Approve(ctx, res.Registration.ID); err != nil {
				t.Fatalf("Approve() err=%v", err)
			}
		}
	}
	h.clk.Advance(3 * time.Hour)

	mine, err := h.svc.ListMine(ctx, "m1")
	if err != nil {
		t.Fatalf("ListMine() err=%v", err)
	}
	if len(mine.Upcoming) != 1 || mine.Upcoming[0].ID != "later" {
		t.Fatalf("upcoming=%v, want [later]", mine.Upcoming)
	}
	if len(mine.Past) != 1 || mine.Past[0].ID != "soon" {
		t.Fatalf("past=%v, want [soon]", mine.Past)
	}
}
