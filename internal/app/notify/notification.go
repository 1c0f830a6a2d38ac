package notify

import (
	"time"

	"github.com/luxeladies/community-api/internal/domain"
)

// Kind names a notification template family.
type Kind string

const (
	KindMemberApproved       Kind = "member_approved"
	KindRegistrationApproved Kind = "registration_approved"
	KindRegistrationRejected Kind = "registration_rejected"
	KindEventReminder        Kind = "event_reminder"
	KindProfileUpdated       Kind = "profile_updated"
	KindQuestionnaireUpdated Kind = "questionnaire_updated"
	KindNotificationsUpdated Kind = "notifications_updated"
)

// Kinds lists every kind the templates must define.
var Kinds = []Kind{
	KindMemberApproved,
	KindRegistrationApproved,
	KindRegistrationRejected,
	KindEventReminder,
	KindProfileUpdated,
	KindQuestionnaireUpdated,
	KindNotificationsUpdated,
}

// Notification is one message to one recipient. An empty To is a no-op.
type Notification struct {
	Kind Kind
	To   string
	Data any
}

// Greeting is the data for kinds that only address the member.
type Greeting struct {
	RecipientName string
}

// EventInfo is the event context shared by event-related templates.
type EventInfo struct {
	Title       string
	Description string
	StartsAt    time.Time
	City        string
	Location    string
}

func NewEventInfo(e domain.Event) EventInfo {
	return EventInfo{
		Title:       e.Title,
		Description: e.Description,
		StartsAt:    e.StartsAt,
		City:        e.City,
		Location:    e.Location,
	}
}

// RegistrationStatus is the data for registration_approved and registration_rejected.
type RegistrationStatus struct {
	RecipientName   string
	RegistrantEmail string
	FullName        string
	ChildName       string
	Event           EventInfo
}

// EventReminder is the data for event_reminder.
type EventReminder struct {
	RecipientName string
	// Label is the window label: "5d", "1d" or "1h".
	Label    string
	Event    EventInfo
	Price    string
	PriceEUR string
}

// NotificationsUpdated is the data for notifications_updated.
type NotificationsUpdated struct {
	RecipientName string
	Settings      domain.NotificationSettings
}
