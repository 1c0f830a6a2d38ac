package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luxeladies/community-api/internal/app/notify"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/platform/log"
	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
	"github.com/luxeladies/community-api/internal/ports/out/dedup"
	"github.com/luxeladies/community-api/internal/ports/out/eventrepo"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
	"github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
)

const (
	// Horizon bounds how far ahead events are scanned.
	Horizon = 6 * 24 * time.Hour
	// Tolerance is how far the remaining time may drift from a window's lead.
	Tolerance = 3 * time.Minute
	// MarkerTTL keeps a sent marker long enough to outlive its window.
	MarkerTTL = 24 * time.Hour
)

// Window is a reminder point before an event starts.
type Window struct {
	Label string
	Lead  time.Duration
}

var Windows = []Window{
	{Label: "5d", Lead: 5 * 24 * time.Hour},
	{Label: "1d", Lead: 24 * time.Hour},
	{Label: "1h", Lead: time.Hour},
}

// DefaultEURRate converts listed prices for display in reminders.
var DefaultEURRate = decimal.RequireFromString("0.51")

// MarkerKey identifies one reminder for one registration and event start.
// A rescheduled event gets fresh keys.
func MarkerKey(id domain.RegistrationID, startsAt time.Time, label string) string {
	return fmt.Sprintf("evrem:%s:%d:%s", id, startsAt.Unix(), label)
}

// Dispatcher sends member-facing email notifications.
type Dispatcher interface {
	Send(ctx context.Context, n notify.Notification) error
}

type JobDeps struct {
	Events        eventrepo.Repository
	Registrations registrationrepo.Repository
	Members       memberrepo.Repository
	Markers       dedup.Store
	Mail          Dispatcher
	Clock         clockport.Clock
	// EURRate defaults to DefaultEURRate when zero.
	EURRate decimal.Decimal
	Logger  *log.Logger
}

// Job scans upcoming events and emails approved registrants as each reminder
// window comes due.
type Job struct {
	events        eventrepo.Repository
	registrations registrationrepo.Repository
	members       memberrepo.Repository
	markers       dedup.Store
	mail          Dispatcher
	clk           clockport.Clock
	rate          decimal.Decimal
	logger        *log.Logger
}

func NewJob(d JobDeps) *Job {
	j := &Job{
		events:        d.Events,
		registrations: d.Registrations,
		members:       d.Members,
		markers:       d.Markers,
		mail:          d.Mail,
		clk:           d.Clock,
		rate:          d.EURRate,
		logger:        d.Logger,
	}
	if j.rate.IsZero() {
		j.rate = DefaultEURRate
	}
	if j.logger == nil {
		j.logger = log.Discard()
	}
	return j
}

// Report summarizes one scan.
type Report struct {
	Events  int
	Scanned int
	Sent    int
	// Skipped counts due reminders suppressed by a missing address or an opt-out.
	Skipped int
	// AlreadySent counts due reminders that found an existing marker.
	AlreadySent int
	Failed      int
}

type recipient struct {
	member   domain.Member
	settings domain.NotificationSettings
	found    bool
}

// RunOnce performs one scan. Store errors while listing abort the scan;
// per-message problems are logged and counted.
func (j *Job) RunOnce(ctx context.Context) (Report, error) {
	now := j.clk.Now()
	until := now.Add(Horizon)
	events, err := j.events.List(ctx, eventrepo.Window{After: &now, Until: &until})
	if err != nil {
		return Report{}, fmt.Errorf("list events: %w", err)
	}
	rep := Report{Events: len(events)}
	if len(events) == 0 {
		return rep, nil
	}

	byID := make(map[domain.EventID]domain.Event, len(events))
	ids := make([]domain.EventID, 0, len(events))
	for _, e := range events {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}
	regs, err := j.registrations.ListByEvents(ctx, ids, domain.RegistrationApproved)
	if err != nil {
		return rep, fmt.Errorf("list registrations: %w", err)
	}

	recipients := make(map[domain.MemberID]recipient)
	for _, reg := range regs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		ev, ok := byID[reg.EventID]
		if !ok {
			continue
		}
		rep.Scanned++
		remaining := ev.StartsAt.Sub(now)
		for _, w := range Windows {
			if absDuration(remaining-w.Lead) > Tolerance {
				continue
			}
			j.remind(ctx, &rep, recipients, reg, ev, w)
		}
	}
	return rep, nil
}

func (j *Job) remind(ctx context.Context, rep *Report, recipients map[domain.MemberID]recipient, reg domain.EventRegistration, ev domain.Event, w Window) {
	key := MarkerKey(reg.ID, ev.StartsAt, w.Label)
	entry := j.logger.WithFields(log.Fields{"registration_id": reg.ID, "event_id": ev.ID, "window": w.Label})

	seen, err := j.markers.Get(ctx, key)
	if err != nil {
		entry.WithError(err).Warn("reminder marker lookup failed")
		rep.Failed++
		return
	}
	if seen {
		rep.AlreadySent++
		return
	}

	r, err := j.recipient(ctx, recipients, reg.MemberID)
	if err != nil {
		entry.WithError(err).Warn("load reminder recipient failed")
		rep.Failed++
		return
	}

	switch {
	case !r.found || r.member.Email == "" || !r.settings.EmailEventReminders:
		rep.Skipped++
	default:
		err := j.mail.Send(ctx, notify.Notification{
			Kind: notify.KindEventReminder,
			To:   r.member.Email,
			Data: notify.EventReminder{
				RecipientName: r.member.GreetingName(),
				Label:         w.Label,
				Event:         notify.NewEventInfo(ev),
				Price:         ev.Price.StringFixed(2),
				PriceEUR:      domain.ConvertPrice(ev.Price, j.rate).StringFixed(1),
			},
		})
		if err != nil {
			entry.WithError(err).Warn("reminder delivery failed")
			rep.Failed++
		} else {
			rep.Sent++
		}
	}

	// The window is settled after one attempt whatever its outcome.
	if err := j.markers.Set(ctx, key, MarkerTTL); err != nil {
		entry.WithError(err).Warn("reminder marker write failed")
	}
}

func (j *Job) recipient(ctx context.Context, cache map[domain.MemberID]recipient, id domain.MemberID) (recipient, error) {
	if r, ok := cache[id]; ok {
		return r, nil
	}
	m, err := j.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			cache[id] = recipient{}
			return recipient{}, nil
		}
		return recipient{}, err
	}
	settings, err := j.members.GetSettings(ctx, id)
	if errors.Is(err, memberrepo.ErrNotFound) {
		settings, err = domain.DefaultNotificationSettings(id), nil
	}
	if err != nil {
		return recipient{}, err
	}
	r := recipient{member: m.Domain(), settings: settings, found: true}
	cache[id] = r
	return r, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
