package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	memclock "github.com/luxeladies/community-api/internal/adapters/memory/clock"
	"github.com/luxeladies/community-api/internal/domain"
	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
	dedupport "github.com/luxeladies/community-api/internal/ports/out/dedup"
	eventrepoport "github.com/luxeladies/community-api/internal/ports/out/eventrepo"
	memberrepoport "github.com/luxeladies/community-api/internal/ports/out/memberrepo"
	questionnairerepoport "github.com/luxeladies/community-api/internal/ports/out/questionnairerepo"
	registrationrepoport "github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
)

type CleanupFunc = func()

// Repos bundles the repositories of one storage backend.
type Repos struct {
	Members        memberrepoport.Repository
	Questionnaires questionnairerepoport.Repository
	Events         eventrepoport.Repository
	Registrations  registrationrepoport.Repository
}

type MemberRepoFactory func(t *testing.T) (memberrepoport.Repository, CleanupFunc)
type ReposFactory func(t *testing.T) (Repos, CleanupFunc)
type MarkerStoreFactory func(t *testing.T, clk clockport.Clock) (dedupport.Store, CleanupFunc)

func newMember(handle string, createdAt time.Time) memberrepoport.Member {
	return memberrepoport.Member{
		ID:           domain.MemberID(uuid.NewString()),
		Handle:       handle,
		Email:        handle + "@example.com",
		PasswordHash: "hash",
		FirstName:    "First " + handle,
		LastName:     "Last",
		Age:          25,
		City:         "Sofia",
		Works:        true,
		IsActive:     true,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func uniqueHandle(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func RunMemberRepo(t *testing.T, newRepo MemberRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	base := time.Unix(1_700_000_000, 0).UTC()
	a := newMember(uniqueHandle("alice"), base)
	if err := repo.Create(ctx, a, domain.DefaultNotificationSettings(a.ID)); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Handle != a.Handle || got.Email != a.Email || got.PasswordHash != "hash" || !got.CreatedAt.Equal(base) {
		t.Fatalf("GetByID()=%+v, want %+v", got, a)
	}
	if _, err := repo.GetByID(ctx, domain.MemberID(uuid.NewString())); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}

	// Login lookup is case-insensitive on handle and email.
	if m, err := repo.GetByLogin(ctx, upper(a.Handle)); err != nil || m.ID != a.ID {
		t.Fatalf("GetByLogin(handle) = %v, %v", m.ID, err)
	}
	if m, err := repo.GetByLogin(ctx, upper(a.Email)); err != nil || m.ID != a.ID {
		t.Fatalf("GetByLogin(email) = %v, %v", m.ID, err)
	}

	// Settings are created with the member.
	s, err := repo.GetSettings(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if s != domain.DefaultNotificationSettings(a.ID) {
		t.Fatalf("GetSettings()=%+v, want defaults", s)
	}
	s.EmailEventReminders = false
	s.EmailNews = true
	if err := repo.SaveSettings(ctx, s); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if got, _ := repo.GetSettings(ctx, a.ID); got != s {
		t.Fatalf("GetSettings() after save=%+v, want %+v", got, s)
	}

	// Case-insensitive uniqueness.
	dupHandle := newMember(upper(a.Handle), base)
	dupHandle.Email = uniqueHandle("fresh") + "@example.com"
	if err := repo.Create(ctx, dupHandle, domain.DefaultNotificationSettings(dupHandle.ID)); !errors.Is(err, memberrepoport.ErrHandleTaken) {
		t.Fatalf("Create(dup handle) err=%v, want ErrHandleTaken", err)
	}
	dupEmail := newMember(uniqueHandle("other"), base)
	dupEmail.Email = upper(a.Email)
	if err := repo.Create(ctx, dupEmail, domain.DefaultNotificationSettings(dupEmail.ID)); !errors.Is(err, memberrepoport.ErrEmailTaken) {
		t.Fatalf("Create(dup email) err=%v, want ErrEmailTaken", err)
	}

	// Update persists profile fields and approval.
	a.FirstName = "Alicia"
	a.IsApproved = true
	a.UpdatedAt = base.Add(time.Hour)
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(ctx, a.ID)
	if got.FirstName != "Alicia" || !got.IsApproved {
		t.Fatalf("GetByID() after update=%+v", got)
	}
	missing := newMember(uniqueHandle("ghost"), base)
	if err := repo.Update(ctx, missing); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("Update(missing) err=%v, want ErrNotFound", err)
	}

	// Filtering and join-order listing.
	b := newMember(uniqueHandle("bob"), base.Add(time.Minute))
	c := newMember(uniqueHandle("cara"), base.Add(2*time.Minute))
	c.IsSuperuser = true
	d := newMember(uniqueHandle("dora"), base.Add(3*time.Minute))
	d.IsActive = false
	for _, m := range []memberrepoport.Member{b, c, d} {
		if err := repo.Create(ctx, m, domain.DefaultNotificationSettings(m.ID)); err != nil {
			t.Fatalf("Create %s: %v", m.Handle, err)
		}
	}
	notApproved := false
	pending, err := repo.List(ctx, memberrepoport.ListFilter{Approved: &notApproved, ActiveOnly: true, ExcludeSuperusers: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ids := onlyIDs(pending, a.ID, b.ID, c.ID, d.ID)
	if len(ids) != 1 || ids[0] != b.ID {
		t.Fatalf("List(pending)=%v, want [%s]", ids, b.ID)
	}
	all, err := repo.List(ctx, memberrepoport.ListFilter{})
	if err != nil {
		t.Fatalf("List(all): %v", err)
	}
	ids = onlyIDs(all, a.ID, b.ID, c.ID, d.ID)
	want := []domain.MemberID{a.ID, b.ID, c.ID, d.ID}
	if len(ids) != len(want) {
		t.Fatalf("List(all)=%v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("List(all) order=%v, want %v", ids, want)
		}
	}

	// Delete removes the member and its settings.
	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, b.ID); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("GetByID(deleted) err=%v, want ErrNotFound", err)
	}
	if _, err := repo.GetSettings(ctx, b.ID); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("GetSettings(deleted) err=%v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, b.ID); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("Delete(deleted) err=%v, want ErrNotFound", err)
	}
}

func RunEventAndRegistrationRepos(t *testing.T, newRepos ReposFactory) {
	t.Helper()
	ctx := context.Background()

	repos, cleanup := newRepos(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	base := time.Unix(1_700_000_000, 0).UTC()

	// Interest catalog.
	yoga := domain.Interest{ID: domain.InterestID(uuid.NewString()), Name: uniqueHandle("Yoga")}
	if err := repos.Events.CreateInterest(ctx, yoga); err != nil {
		t.Fatalf("CreateInterest: %v", err)
	}
	dup := domain.Interest{ID: domain.InterestID(uuid.NewString()), Name: upper(yoga.Name)}
	if err := repos.Events.CreateInterest(ctx, dup); !errors.Is(err, eventrepoport.ErrInterestExists) {
		t.Fatalf("CreateInterest(dup) err=%v, want ErrInterestExists", err)
	}
	interests, err := repos.Events.ListInterests(ctx)
	if err != nil {
		t.Fatalf("ListInterests: %v", err)
	}
	if !containsInterest(interests, yoga.ID) {
		t.Fatalf("ListInterests()=%v, missing %s", interests, yoga.ID)
	}

	// Events.
	mk := func(title string, start time.Time) domain.Event {
		return domain.Event{
			ID:          domain.EventID(uuid.NewString()),
			Title:       title,
			Description: "**bold** plans",
			StartsAt:    start,
			City:        "Sofia",
			Location:    "Garden",
			InterestIDs: []domain.InterestID{yoga.ID},
			Capacity:    10,
			Price:       decimal.RequireFromString("25.50"),
			CreatedAt:   base,
			UpdatedAt:   base,
		}
	}
	e1 := mk("Picnic", base.Add(24*time.Hour))
	e2 := mk("Brunch", base.Add(48*time.Hour))
	e3 := mk("Gala", base.Add(-24*time.Hour))
	for _, e := range []domain.Event{e1, e2, e3} {
		if err := repos.Events.Create(ctx, e); err != nil {
			t.Fatalf("Create event %s: %v", e.Title, err)
		}
	}
	gotEvent, err := repos.Events.GetByID(ctx, e1.ID)
	if err != nil {
		t.Fatalf("GetByID event: %v", err)
	}
	if gotEvent.Title != "Picnic" || !gotEvent.Price.Equal(e1.Price) || !gotEvent.StartsAt.Equal(e1.StartsAt) || !gotEvent.HasInterest(yoga.ID) {
		t.Fatalf("GetByID event=%+v, want %+v", gotEvent, e1)
	}
	if _, err := repos.Events.GetByID(ctx, domain.EventID(uuid.NewString())); !errors.Is(err, eventrepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing event) err=%v, want ErrNotFound", err)
	}
	e1.KidFriendly = true
	e1.Capacity = 2
	if err := repos.Events.Save(ctx, e1); err != nil {
		t.Fatalf("Save event: %v", err)
	}
	if gotEvent, _ = repos.Events.GetByID(ctx, e1.ID); !gotEvent.KidFriendly || gotEvent.Capacity != 2 {
		t.Fatalf("GetByID after save=%+v", gotEvent)
	}

	after, until := base, base.Add(36*time.Hour)
	window, err := repos.Events.List(ctx, eventrepoport.Window{After: &after, Until: &until})
	if err != nil {
		t.Fatalf("List window: %v", err)
	}
	if ids := onlyEventIDs(window, e1.ID, e2.ID, e3.ID); len(ids) != 1 || ids[0] != e1.ID {
		t.Fatalf("List(window)=%v, want [%s]", ids, e1.ID)
	}
	upcoming, err := repos.Events.List(ctx, eventrepoport.Window{After: &after})
	if err != nil {
		t.Fatalf("List upcoming: %v", err)
	}
	if ids := onlyEventIDs(upcoming, e1.ID, e2.ID, e3.ID); len(ids) != 2 || ids[0] != e1.ID || ids[1] != e2.ID {
		t.Fatalf("List(upcoming)=%v, want [%s %s]", ids, e1.ID, e2.ID)
	}
	past, err := repos.Events.List(ctx, eventrepoport.Window{Until: &after, Descending: true})
	if err != nil {
		t.Fatalf("List past: %v", err)
	}
	if ids := onlyEventIDs(past, e1.ID, e2.ID, e3.ID); len(ids) != 1 || ids[0] != e3.ID {
		t.Fatalf("List(past)=%v, want [%s]", ids, e3.ID)
	}

	// Members + questionnaire.
	m := newMember(uniqueHandle("mia"), base)
	if err := repos.Members.Create(ctx, m, domain.DefaultNotificationSettings(m.ID)); err != nil {
		t.Fatalf("Create member: %v", err)
	}
	if _, err := repos.Questionnaires.Get(ctx, m.ID); !errors.Is(err, questionnairerepoport.ErrNotFound) {
		t.Fatalf("Get questionnaire err=%v, want ErrNotFound", err)
	}
	insta := "@mia"
	q := domain.Questionnaire{
		MemberID:       m.ID,
		FullName:       "Mia Last",
		City:           "Plovdiv",
		CanTravel:      true,
		InterestIDs:    []domain.InterestID{yoga.ID},
		Instagram:      &insta,
		ReferralSource: domain.ReferralFriend,
		HasFriend:      true,
		FriendName:     "Zoe",
		Completed:      true,
		CreatedAt:      base,
		UpdatedAt:      base,
	}
	if err := repos.Questionnaires.Create(ctx, q); err != nil {
		t.Fatalf("Create questionnaire: %v", err)
	}
	if err := repos.Questionnaires.Create(ctx, q); !errors.Is(err, questionnairerepoport.ErrAlreadyExists) {
		t.Fatalf("Create questionnaire twice err=%v, want ErrAlreadyExists", err)
	}
	gotQ, err := repos.Questionnaires.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get questionnaire: %v", err)
	}
	if gotQ.City != "Plovdiv" || gotQ.FriendName != "Zoe" || gotQ.Instagram == nil || *gotQ.Instagram != "@mia" ||
		len(gotQ.InterestIDs) != 1 || gotQ.ReferralSource != domain.ReferralFriend {
		t.Fatalf("Get questionnaire=%+v, want %+v", gotQ, q)
	}
	q.InterestIDs = nil
	q.City = "Varna"
	if err := repos.Questionnaires.Save(ctx, q); err != nil {
		t.Fatalf("Save questionnaire: %v", err)
	}
	if gotQ, _ = repos.Questionnaires.Get(ctx, m.ID); gotQ.City != "Varna" || len(gotQ.InterestIDs) != 0 {
		t.Fatalf("Get questionnaire after save=%+v", gotQ)
	}

	// Registrations.
	childName, childAge := "Lia", 6
	r1 := domain.EventRegistration{
		ID:        domain.RegistrationID(uuid.NewString()),
		EventID:   e1.ID,
		MemberID:  m.ID,
		FullName:  "Mia Last",
		ChildName: &childName,
		ChildAge:  &childAge,
		Status:    domain.RegistrationPending,
		CreatedAt: base,
		UpdatedAt: base,
	}
	if err := repos.Registrations.Create(ctx, r1); err != nil {
		t.Fatalf("Create registration: %v", err)
	}
	again := r1
	again.ID = domain.RegistrationID(uuid.NewString())
	if err := repos.Registrations.Create(ctx, again); !errors.Is(err, registrationrepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate pair err=%v, want ErrAlreadyExists", err)
	}
	gotR, err := repos.Registrations.GetByEventAndMember(ctx, e1.ID, m.ID)
	if err != nil {
		t.Fatalf("GetByEventAndMember: %v", err)
	}
	if gotR.ID != r1.ID || gotR.ChildName == nil || *gotR.ChildName != "Lia" || gotR.ChildAge == nil || *gotR.ChildAge != 6 {
		t.Fatalf("GetByEventAndMember=%+v, want %+v", gotR, r1)
	}

	r2 := domain.EventRegistration{
		ID:        domain.RegistrationID(uuid.NewString()),
		EventID:   e2.ID,
		MemberID:  m.ID,
		FullName:  "Mia Last",
		Status:    domain.RegistrationPending,
		CreatedAt: base.Add(time.Minute),
		UpdatedAt: base.Add(time.Minute),
	}
	if err := repos.Registrations.Create(ctx, r2); err != nil {
		t.Fatalf("Create registration r2: %v", err)
	}

	if err := repos.Registrations.UpdateStatus(ctx, r1.ID, domain.RegistrationApproved, base.Add(time.Hour)); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repos.Registrations.UpdateStatus(ctx, domain.RegistrationID(uuid.NewString()), domain.RegistrationApproved, base); !errors.Is(err, registrationrepoport.ErrNotFound) {
		t.Fatalf("UpdateStatus(missing) err=%v, want ErrNotFound", err)
	}
	gotR, _ = repos.Registrations.GetByID(ctx, r1.ID)
	if gotR.Status != domain.RegistrationApproved || !gotR.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("GetByID after UpdateStatus=%+v", gotR)
	}

	approved, err := repos.Registrations.ListByEvents(ctx, []domain.EventID{e1.ID, e2.ID}, domain.RegistrationApproved)
	if err != nil {
		t.Fatalf("ListByEvents: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != r1.ID {
		t.Fatalf("ListByEvents(approved)=%v, want [%s]", approved, r1.ID)
	}
	if n, err := repos.Registrations.CountByEvent(ctx, e1.ID, domain.RegistrationApproved); err != nil || n != 1 {
		t.Fatalf("CountByEvent=%d, %v, want 1", n, err)
	}
	mine, err := repos.Registrations.ListByMember(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != r1.ID || mine[1].ID != r2.ID {
		t.Fatalf("ListByMember=%v, want [%s %s]", mine, r1.ID, r2.ID)
	}
	pendingRegs, err := repos.Registrations.ListByStatus(ctx, domain.RegistrationPending)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if !containsRegistration(pendingRegs, r2.ID) || containsRegistration(pendingRegs, r1.ID) {
		t.Fatalf("ListByStatus(pending) mismatch: %v", pendingRegs)
	}
	counts, err := repos.Registrations.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[domain.RegistrationApproved] < 1 || counts[domain.RegistrationPending] < 1 {
		t.Fatalf("CountByStatus=%v, want at least one approved and one pending", counts)
	}

	// Deleting the member cascades.
	if err := repos.Members.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete member: %v", err)
	}
	if _, err := repos.Questionnaires.Get(ctx, m.ID); !errors.Is(err, questionnairerepoport.ErrNotFound) {
		t.Fatalf("Get questionnaire after member delete err=%v, want ErrNotFound", err)
	}
	if _, err := repos.Registrations.GetByID(ctx, r1.ID); !errors.Is(err, registrationrepoport.ErrNotFound) {
		t.Fatalf("GetByID registration after member delete err=%v, want ErrNotFound", err)
	}
}

func RunMarkerStore(t *testing.T, newStore MarkerStoreFactory) {
	t.Helper()
	ctx := context.Background()

	clk := memclock.NewManualClock(time.Unix(1_700_000_000, 0).UTC())
	store, cleanup := newStore(t, clk)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	key := "evrem:" + uuid.NewString() + ":1700000000:1d"
	ok, err := store.Get(ctx, key)
	if err != nil || ok {
		t.Fatalf("Get(unset)=%v, %v, want false", ok, err)
	}
	if err := store.Set(ctx, key, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ok, err := store.Get(ctx, key); err != nil || !ok {
		t.Fatalf("Get(set)=%v, %v, want true", ok, err)
	}

	clk.Advance(59 * time.Minute)
	if ok, _ := store.Get(ctx, key); !ok {
		t.Fatalf("Get before expiry=false, want true")
	}
	clk.Advance(time.Minute)
	if ok, _ := store.Get(ctx, key); ok {
		t.Fatalf("Get at expiry=true, want false")
	}

	// Set refreshes an expired marker.
	if err := store.Set(ctx, key, time.Hour); err != nil {
		t.Fatalf("Set again: %v", err)
	}
	if ok, _ := store.Get(ctx, key); !ok {
		t.Fatalf("Get after refresh=false, want true")
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func onlyIDs(ms []memberrepoport.Member, keep ...domain.MemberID) []domain.MemberID {
	want := make(map[domain.MemberID]bool, len(keep))
	for _, id := range keep {
		want[id] = true
	}
	out := make([]domain.MemberID, 0)
	for _, m := range ms {
		if want[m.ID] {
			out = append(out, m.ID)
		}
	}
	return out
}

func onlyEventIDs(es []domain.Event, keep ...domain.EventID) []domain.EventID {
	want := make(map[domain.EventID]bool, len(keep))
	for _, id := range keep {
		want[id] = true
	}
	out := make([]domain.EventID, 0)
	for _, e := range es {
		if want[e.ID] {
			out = append(out, e.ID)
		}
	}
	return out
}

func containsInterest(is []domain.Interest, id domain.InterestID) bool {
	for _, i := range is {
		if i.ID == id {
			return true
		}
	}
	return false
}

func containsRegistration(rs []domain.EventRegistration, id domain.RegistrationID) bool {
	for _, r := range rs {
		if r.ID == id {
			return true
		}
	}
	return false
}
