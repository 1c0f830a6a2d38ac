package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEvent_FreeSpotsNeverNegative(t *testing.T) {
	t.Parallel()

	e := Event{Capacity: 3}
	cases := []struct {
		approved int
		want     int
	}{
		{0, 3},
		{2, 1},
		{3, 0},
		{7, 0},
	}
	for _, tc := range cases {
		if got := e.FreeSpots(tc.approved); got != tc.want {
			t.Fatalf("FreeSpots(%d)=%d, want %d", tc.approved, got, tc.want)
		}
	}
}

func TestEvent_IsPastIncludesStartInstant(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	e := Event{StartsAt: start}
	if e.IsPast(start.Add(-time.Second)) {
		t.Fatalf("IsPast before start=true, want false")
	}
	if !e.IsPast(start) {
		t.Fatalf("IsPast at start=false, want true")
	}
}

func TestEvent_PriceEURRoundsHalfUpToOneDecimal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		price string
		want  string
	}{
		{"10.00", "5.1"},  // 5.1129...
		{"19.56", "10.0"}, // 10.0009...
		{"0.00", "0.0"},
		{"29.34", "15.0"}, // 15.0013...
	}
	for _, tc := range cases {
		e := Event{Price: decimal.RequireFromString(tc.price)}
		if got := e.PriceEUR().StringFixed(1); got != tc.want {
			t.Fatalf("PriceEUR(%s)=%s, want %s", tc.price, got, tc.want)
		}
	}
}

func TestConvertPrice_HalfUp(t *testing.T) {
	t.Parallel()

	rate := decimal.RequireFromString("0.51")
	cases := []struct {
		price string
		want  string
	}{
		{"10.50", "5.4"}, // 5.355
		{"0.50", "0.3"},  // 0.255
		{"20.00", "10.2"},
	}
	for _, tc := range cases {
		got := ConvertPrice(decimal.RequireFromString(tc.price), rate).StringFixed(1)
		if got != tc.want {
			t.Fatalf("ConvertPrice(%s)=%s, want %s", tc.price, got, tc.want)
		}
	}
}

func TestMember_ApprovalPolicy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		m    Member
		want bool
	}{
		{"minor who works", Member{Age: 17, Works: true, Studies: true}, false},
		{"adult who works", Member{Age: 18, Works: true}, true},
		{"adult who studies", Member{Age: 30, Studies: true}, true},
		{"adult idle", Member{Age: 40}, false},
	}
	for _, tc := range cases {
		if got := tc.m.MeetsApprovalPolicy(); got != tc.want {
			t.Fatalf("%s: MeetsApprovalPolicy()=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMember_DisplayNameFallsBackToHandle(t *testing.T) {
	t.Parallel()

	if got := (Member{Handle: "ivy", FirstName: "  Ivana ", LastName: " Petrova"}).DisplayName(); got != "Ivana Petrova" {
		t.Fatalf("DisplayName()=%q, want %q", got, "Ivana Petrova")
	}
	if got := (Member{Handle: "ivy"}).DisplayName(); got != "ivy" {
		t.Fatalf("DisplayName()=%q, want %q", got, "ivy")
	}
}

func TestDefaultNotificationSettings(t *testing.T) {
	t.Parallel()

	s := DefaultNotificationSettings("m1")
	if !s.EmailEventReminders || !s.EmailEventStatusChanges || !s.EmailRecommendations ||
		!s.EmailProfileChanges || !s.EmailQuestionnaireChanges {
		t.Fatalf("defaults=%+v, want all opt-ins true except news", s)
	}
	if s.EmailNews {
		t.Fatalf("EmailNews=true, want false")
	}
}
