package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/luxeladies/community-api/internal/adapters/memory/outbox"
	"github.com/luxeladies/community-api/internal/domain"
)

func newTestRenderer(t *testing.T, locale string) *Renderer {
	t.Helper()
	r, err := NewRenderer(RendererOptions{Locale: locale, SiteName: "LuxeLadies"})
	if err != nil {
		t.Fatalf("NewRenderer() err=%v", err)
	}
	return r
}

func testEvent() EventInfo {
	return EventInfo{
		Title:       "Брънч в София",
		Description: "Ще има **кафе** и разговори.",
		StartsAt:    time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC),
		City:        "София",
		Location:    "Градината",
	}
}

func TestRenderer_SubjectsDefaultLocale(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, "")
	if r.Locale() != "bg" {
		t.Fatalf("Locale()=%q, want bg", r.Locale())
	}
	cases := []struct {
		kind Kind
		data any
		want string
	}{
		{KindMemberApproved, Greeting{RecipientName: "Ива"}, "LuxeLadies – Регистрацията е одобрена"},
		{KindRegistrationApproved, RegistrationStatus{Event: testEvent()}, "Одобрение за участие: Брънч в София"},
		{KindRegistrationRejected, RegistrationStatus{Event: testEvent()}, "Отказ за участие: Брънч в София"},
		{KindEventReminder, EventReminder{Label: "1d", Event: testEvent()}, "Напомняне: Брънч в София – скоро започва"},
	}
	for _, tc := range cases {
		got, err := r.Subject(tc.kind, tc.data)
		if err != nil {
			t.Fatalf("Subject(%s) err=%v", tc.kind, err)
		}
		if got != tc.want {
			t.Fatalf("Subject(%s)=%q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestRenderer_UnknownLocaleFallsBack(t *testing.T) {
	t.Parallel()

	if got := newTestRenderer(t, "fr").Locale(); got != DefaultLocale {
		t.Fatalf("Locale()=%q, want %q", got, DefaultLocale)
	}
	if got := newTestRenderer(t, "EN").Locale(); got != "en" {
		t.Fatalf("Locale()=%q, want en", got)
	}
}

func TestRenderer_StatusTextNamesEventAndRegistrant(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, "bg")
	text, err := r.RenderText(KindRegistrationApproved, RegistrationStatus{
		RecipientName:   "Ива",
		RegistrantEmail: "iva@example.com",
		ChildName:       "Мила",
		Event:           testEvent(),
	})
	if err != nil {
		t.Fatalf("RenderText() err=%v", err)
	}
	for _, want := range []string{"Брънч в София", "iva@example.com", "01.06.2026 10:30", "Мила"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
}

func TestRenderer_ReminderHTMLRendersMarkdown(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, "en")
	html, ok, err := r.TryRenderHTML(KindEventReminder, EventReminder{
		RecipientName: "Iva",
		Label:         "5d",
		Event:         testEvent(),
		Price:         "20.00",
		PriceEUR:      "10.2",
	})
	if err != nil || !ok {
		t.Fatalf("TryRenderHTML()=(_, %v, %v), want ok", ok, err)
	}
	if !strings.Contains(html, "<strong>кафе</strong>") {
		t.Fatalf("html missing rendered markdown:\n%s", html)
	}
	if !strings.Contains(html, "in 5 days") || !strings.Contains(html, "10.2 EUR") {
		t.Fatalf("html missing lead time or price:\n%s", html)
	}
}

func TestRenderer_ReminderHTMLEscapesRawHTML(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, "bg")
	ev := testEvent()
	ev.Description = "<script>alert(1)</script>"
	html, ok, err := r.TryRenderHTML(KindEventReminder, EventReminder{Label: "1h", Event: ev})
	if err != nil || !ok {
		t.Fatalf("TryRenderHTML()=(_, %v, %v), want ok", ok, err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("html contains raw script tag:\n%s", html)
	}
}

func TestRenderer_MissingHTMLIsNotAnError(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, "bg")
	_, ok, err := r.TryRenderHTML(KindProfileUpdated, Greeting{RecipientName: "Ива"})
	if err != nil {
		t.Fatalf("TryRenderHTML() err=%v, want nil", err)
	}
	if ok {
		t.Fatalf("TryRenderHTML() ok=true, want false")
	}
}

func TestRenderer_NotificationsUpdatedListsFlags(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, "en")
	s := domain.DefaultNotificationSettings("m1")
	s.EmailEventReminders = false
	text, err := r.RenderText(KindNotificationsUpdated, NotificationsUpdated{RecipientName: "Iva", Settings: s})
	if err != nil {
		t.Fatalf("RenderText() err=%v", err)
	}
	if !strings.Contains(text, "Event reminders: off") || !strings.Contains(text, "Recommendations: on") {
		t.Fatalf("text=%s, want flag listing", text)
	}
}

func TestDispatcher_EmptyRecipientIsNoop(t *testing.T) {
	t.Parallel()

	box := outbox.New()
	d := NewDispatcher(newTestRenderer(t, "bg"), box, "noreply@example.com", nil, nil)
	if err := d.Send(context.Background(), Notification{Kind: KindMemberApproved, Data: Greeting{}}); err != nil {
		t.Fatalf("Send() err=%v", err)
	}
	if n := len(box.Messages()); n != 0 {
		t.Fatalf("sent=%d, want 0", n)
	}
}

func TestDispatcher_SendsTextAndHTML(t *testing.T) {
	t.Parallel()

	box := outbox.New()
	d := NewDispatcher(newTestRenderer(t, "bg"), box, "noreply@example.com", nil, nil)
	err := d.Send(context.Background(), Notification{
		Kind: KindMemberApproved,
		To:   "iva@example.com",
		Data: Greeting{RecipientName: "Ива"},
	})
	if err != nil {
		t.Fatalf("Send() err=%v", err)
	}
	msgs := box.Messages()
	if len(msgs) != 1 {
		t.Fatalf("sent=%d, want 1", len(msgs))
	}
	m := msgs[0]
	if m.From != "noreply@example.com" || len(m.To) != 1 || m.To[0] != "iva@example.com" {
		t.Fatalf("envelope=%+v", m)
	}
	if !strings.Contains(m.Text, "Ива") || m.HTML == "" {
		t.Fatalf("message=%+v, want text and html", m)
	}
}

func TestDispatcher_TextOnlyWhenHTMLAbsent(t *testing.T) {
	t.Parallel()

	box := outbox.New()
	d := NewDispatcher(newTestRenderer(t, "bg"), box, "noreply@example.com", nil, nil)
	if err := d.Send(context.Background(), Notification{
		Kind: KindQuestionnaireUpdated,
		To:   "iva@example.com",
		Data: Greeting{RecipientName: "Ива"},
	}); err != nil {
		t.Fatalf("Send() err=%v", err)
	}
	msgs := box.Messages()
	if len(msgs) != 1 || msgs[0].HTML != "" || msgs[0].Text == "" {
		t.Fatalf("messages=%+v, want one text-only message", msgs)
	}
}

func TestDispatcher_ReturnsTransportError(t *testing.T) {
	t.Parallel()

	box := outbox.New()
	boom := errors.New("smtp down")
	box.FailWith(boom)
	d := NewDispatcher(newTestRenderer(t, "bg"), box, "noreply@example.com", nil, nil)
	err := d.Send(context.Background(), Notification{
		Kind: KindMemberApproved,
		To:   "iva@example.com",
		Data: Greeting{RecipientName: "Ива"},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Send() err=%v, want %v", err, boom)
	}
}

func TestDispatcher_CanceledContextStopsThrottle(t *testing.T) {
	t.Parallel()

	box := outbox.New()
	// Zero rate with zero burst never admits a send.
	d := NewDispatcher(newTestRenderer(t, "bg"), box, "noreply@example.com", rate0(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Send(ctx, Notification{Kind: KindMemberApproved, To: "a@b.c", Data: Greeting{}}); err == nil {
		t.Fatalf("Send() err=nil, want throttle error")
	}
	if n := len(box.Messages()); n != 0 {
		t.Fatalf("sent=%d, want 0", n)
	}
}

func rate0() *rate.Limiter { return rate.NewLimiter(0, 0) }
