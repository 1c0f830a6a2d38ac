package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luxeladies/community-api/internal/adapters/memory"
	memclock "github.com/luxeladies/community-api/internal/adapters/memory/clock"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
)

// 10:00 in Sofia.
var t0 = time.Date(2026, 6, 10, 7, 0, 0, 0, time.UTC)

type harness struct {
	svc   *Service
	store *memory.Store
	clk   *memclock.ManualClock
}

func newHarness(t *testing.T) harness {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Sofia")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	clk := memclock.NewManualClock(t0)
	store := memory.NewStore(clk)
	svc := NewService(Deps{
		Events:         store.Events,
		Registrations:  store.Registrations,
		Members:        store.Members,
		Questionnaires: store.Questionnaires,
		Clock:          clk,
		Location:       loc,
		HubCity:        "Sofia",
	})
	n := 0
	svc.SetNewEventIDForTest(func() domain.EventID {
		n++
		return domain.EventID("ev" + string(rune('0'+n)))
	})
	for _, i := range []domain.Interest{{ID: "art", Name: "Art"}, {ID: "yoga", Name: "Yoga"}} {
		if err := store.Events.CreateInterest(context.Background(), i); err != nil {
			t.Fatalf("CreateInterest() err=%v", err)
		}
	}
	return harness{svc: svc, store: store, clk: clk}
}

func (h harness) member(t *testing.T, id domain.MemberID, superuser bool, q *domain.Questionnaire) {
	t.Helper()
	m := memberrepo.Member{
		ID: id, Handle: string(id), Email: string(id) + "@example.com", City: "Varna", Age: 30,
		IsApproved: true, IsActive: true, IsSuperuser: superuser, CreatedAt: t0, UpdatedAt: t0,
	}
	if err := h.store.Members.Create(context.Background(), m, domain.DefaultNotificationSettings(id)); err != nil {
		t.Fatalf("Create member err=%v", err)
	}
	if q != nil {
		q.MemberID = id
		if err := h.store.Questionnaires.Create(context.Background(), *q); err != nil {
			t.Fatalf("Create questionnaire err=%v", err)
		}
	}
}

func (h harness) event(t *testing.T, in CreateEventInput) domain.Event {
	t.Helper()
	if in.Title == "" {
		in.Title = "Event"
	}
	if in.City == "" {
		in.City = "Sofia"
	}
	if in.Capacity == 0 {
		in.Capacity = 10
	}
	e, err := h.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create(%q) err=%v", in.Title, err)
	}
	return e
}

func wantAppError(t *testing.T, err error, status int, code string) *Error {
	t.Helper()
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("err=%v, want *Error", err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("err=%d %s, want %d %s", ae.Status, ae.Code, status, code)
	}
	return ae
}

func ids(vs []EventView) []domain.EventID {
	out := make([]domain.EventID, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Event.ID)
	}
	return out
}

func sameIDs(a, b []domain.EventID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestService_CreateValidates(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.svc.Create(context.Background(), CreateEventInput{
		Title:       " ",
		Capacity:    -1,
		Price:       decimal.RequireFromString("-1"),
		InterestIDs: []domain.InterestID{"nope"},
	})
	ae := wantAppError(t, err, 422, "VALIDATION_ERROR")
	for _, f := range []string{"title", "city", "startsAt", "capacity", "price", "interestIds"} {
		if _, ok := ae.Details[f]; !ok {
			t.Fatalf("details=%v, want %q", ae.Details, f)
		}
	}

	_, err = h.svc.Create(context.Background(), CreateEventInput{
		Title: "Odd price", City: "Sofia", StartsAt: t0.Add(time.Hour), Capacity: 5,
		Price: decimal.RequireFromString("1.005"),
	})
	wantAppError(t, err, 422, "VALIDATION_ERROR")

	e := h.event(t, CreateEventInput{
		Title: "  Picnic ", StartsAt: t0.Add(time.Hour), Price: decimal.RequireFromString("15.5"),
		InterestIDs: []domain.InterestID{"art", "art", "yoga"},
	})
	if e.Title != "Picnic" || len(e.InterestIDs) != 2 || e.Price.String() != "15.5" {
		t.Fatalf("event=%+v", e)
	}
}

func TestService_UpdatePatchesFields(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	img := "img/1.png"
	e := h.event(t, CreateEventInput{Title: "Old", StartsAt: t0.Add(time.Hour), ImageRef: &img, Location: "Park"})

	h.clk.Advance(time.Minute)
	got, err := h.svc.Update(ctx, e.ID, UpdateEventInput{
		Title:    Some("New"),
		ImageRef: Null[string](),
		Capacity: Some(3),
	})
	if err != nil {
		t.Fatalf("Update() err=%v", err)
	}
	if got.Title != "New" || got.ImageRef != nil || got.Capacity != 3 || got.Location != "Park" || !got.UpdatedAt.After(e.UpdatedAt) {
		t.Fatalf("event=%+v", got)
	}

	_, err = h.svc.Update(ctx, e.ID, UpdateEventInput{City: Null[string]()})
	wantAppError(t, err, 422, "VALIDATION_ERROR")
	_, err = h.svc.Update(ctx, "missing", UpdateEventInput{})
	wantAppError(t, err, 404, "EVENT_NOT_FOUND")
}

func TestService_ListUpcomingFilters(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	kids := true
	// ev1: earlier today, already started.
	h.event(t, CreateEventInput{Title: "Gone", StartsAt: t0.Add(-time.Hour)})
	// ev2: 23:30 local today.
	h.event(t, CreateEventInput{Title: "Late", StartsAt: time.Date(2026, 6, 10, 20, 30, 0, 0, time.UTC), InterestIDs: []domain.InterestID{"art"}})
	// ev3: 00:30 local tomorrow, which is still June 10 in UTC.
	h.event(t, CreateEventInput{Title: "Midnight", StartsAt: time.Date(2026, 6, 10, 21, 30, 0, 0, time.UTC), City: "plovdiv", KidFriendly: true})
	// ev4: next week.
	h.event(t, CreateEventInput{Title: "Next", StartsAt: t0.Add(7 * 24 * time.Hour), City: "Plovdiv"})

	all, err := h.svc.ListUpcoming(ctx, "", Filter{})
	if err != nil {
		t.Fatalf("ListUpcoming() err=%v", err)
	}
	if want := []domain.EventID{"ev2", "ev3", "ev4"}; !sameIDs(ids(all), want) {
		t.Fatalf("ListUpcoming()=%v, want %v", ids(all), want)
	}

	day := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		f    Filter
		want []domain.EventID
	}{
		{"local day", Filter{Date: &day}, []domain.EventID{"ev2"}},
		{"city", Filter{City: " PLOVDIV "}, []domain.EventID{"ev3", "ev4"}},
		{"interest", Filter{InterestID: "art"}, []domain.EventID{"ev2"}},
		{"kid friendly", Filter{KidFriendly: &kids}, []domain.EventID{"ev3"}},
	}
	for _, tc := range cases {
		got, err := h.svc.ListUpcoming(ctx, "", tc.f)
		if err != nil {
			t.Fatalf("%s: err=%v", tc.name, err)
		}
		if !sameIDs(ids(got), tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, ids(got), tc.want)
		}
	}
}

func TestService_ListPastNewestFirst(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.event(t, CreateEventInput{Title: "A", StartsAt: t0.Add(-48 * time.Hour)})
	h.event(t, CreateEventInput{Title: "B", StartsAt: t0.Add(-time.Hour)})
	h.event(t, CreateEventInput{Title: "C", StartsAt: t0.Add(time.Hour)})

	got, err := h.svc.ListPast(context.Background())
	if err != nil {
		t.Fatalf("ListPast() err=%v", err)
	}
	if want := []domain.EventID{"ev2", "ev1"}; !sameIDs(ids(got), want) {
		t.Fatalf("ListPast()=%v, want %v", ids(got), want)
	}
	if !got[0].IsPast {
		t.Fatalf("IsPast=false for a past event")
	}
}

func TestService_Recommended(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.event(t, CreateEventInput{Title: "Varna", City: "Varna", StartsAt: t0.Add(time.Hour)})
	h.event(t, CreateEventInput{Title: "Hub", City: "sofia", StartsAt: t0.Add(2 * time.Hour)})
	h.event(t, CreateEventInput{Title: "Kids", City: "Varna", StartsAt: t0.Add(3 * time.Hour), KidFriendly: true})
	h.event(t, CreateEventInput{Title: "Far", City: "Ruse", StartsAt: t0.Add(4 * time.Hour)})

	h.member(t, "home", false, &domain.Questionnaire{City: " varna ", Completed: true})
	h.member(t, "traveler", false, &domain.Questionnaire{City: "Varna", CanTravel: true, HasChildren: true, WantsEventsWithChildren: true, Completed: true})

	cases := []struct {
		member domain.MemberID
		want   []domain.EventID
	}{
		{"home", []domain.EventID{"ev1"}},
		{"traveler", []domain.EventID{"ev1", "ev2", "ev3"}},
	}
	for _, tc := range cases {
		got, err := h.svc.Recommended(ctx, tc.member)
		if err != nil {
			t.Fatalf("Recommended(%s) err=%v", tc.member, err)
		}
		if !sameIDs(ids(got), tc.want) {
			t.Fatalf("Recommended(%s)=%v, want %v", tc.member, ids(got), tc.want)
		}
	}
}

func TestService_GetIncludesSpotsPriceAndRegistration(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.member(t, "m1", false, nil)
	h.member(t, "m2", false, nil)
	e := h.event(t, CreateEventInput{Title: "Dinner", StartsAt: t0.Add(time.Hour), Capacity: 2, Price: decimal.RequireFromString("20")})
	for _, r := range []domain.EventRegistration{
		{ID: "r1", EventID: e.ID, MemberID: "m1", Status: domain.RegistrationApproved, CreatedAt: t0},
		{ID: "r2", EventID: e.ID, MemberID: "m2", Status: domain.RegistrationPending, CreatedAt: t0},
	} {
		if err := h.store.Registrations.Create(ctx, r); err != nil {
			t.Fatalf("Create registration err=%v", err)
		}
	}

	v, err := h.svc.Get(ctx, "m2", e.ID)
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if v.FreeSpots != 1 || v.PriceEUR.String() != "10.2" || v.IsPast {
		t.Fatalf("view=%+v", v)
	}
	if v.MyRegistration == nil || v.MyRegistration.ID != "r2" {
		t.Fatalf("MyRegistration=%+v, want r2", v.MyRegistration)
	}

	h.clk.Advance(time.Hour)
	v, _ = h.svc.Get(ctx, "m3", e.ID)
	if !v.IsPast || v.MyRegistration != nil {
		t.Fatalf("view=%+v, want past with no registration", v)
	}

	_, err = h.svc.Get(ctx, "m1", "missing")
	wantAppError(t, err, 404, "EVENT_NOT_FOUND")
}

func TestService_CheckAccess(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.member(t, "root", true, nil)
	h.member(t, "fresh", false, nil)
	h.member(t, "draft", false, &domain.Questionnaire{City: "Varna"})
	h.member(t, "done", false, &domain.Questionnaire{City: "Varna", Completed: true})

	if err := h.svc.CheckAccess(ctx, "root"); err != nil {
		t.Fatalf("CheckAccess(root) err=%v", err)
	}
	if err := h.svc.CheckAccess(ctx, "done"); err != nil {
		t.Fatalf("CheckAccess(done) err=%v", err)
	}
	for _, id := range []domain.MemberID{"fresh", "draft"} {
		wantAppError(t, h.svc.CheckAccess(ctx, id), 403, "QUESTIONNAIRE_REQUIRED")
	}
	wantAppError(t, h.svc.CheckAccess(ctx, "ghost"), 404, "MEMBER_NOT_FOUND")
}

func TestService_Interests(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	i, err := h.svc.CreateInterest(ctx, "  Board   games ")
	if err != nil {
		t.Fatalf("CreateInterest() err=%v", err)
	}
	if i.Name != "Board games" || i.ID == "" {
		t.Fatalf("interest=%+v", i)
	}
	_, err = h.svc.CreateInterest(ctx, "YOGA")
	wantAppError(t, err, 409, "INTEREST_EXISTS")
	_, err = h.svc.CreateInterest(ctx, " ")
	wantAppError(t, err, 422, "VALIDATION_ERROR")

	list, err := h.svc.ListInterests(ctx)
	if err != nil || len(list) != 3 || list[0].Name != "Art" {
		t.Fatalf("ListInterests()=(%v, %v)", list, err)
	}
}

func TestService_CreateAllowsZeroCapacity(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	e, err := h.svc.Create(context.Background(), CreateEventInput{
		Title: "Waitlist only", City: "Sofia", StartsAt: t0.Add(time.Hour), Capacity: 0,
	})
	if err != nil {
		t.Fatalf("Create(capacity 0) err=%v", err)
	}
	if e.Capacity != 0 || e.FreeSpots(0) != 0 {
		t.Fatalf("event=%+v, want capacity 0 and no free spots", e)
	}
}
