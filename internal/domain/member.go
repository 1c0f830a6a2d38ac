package domain

import (
	"strings"
	"time"
)

// MinimumAge is the youngest age accepted at registration and approval.
const MinimumAge = 18

// Member is the domain representation of a member account and profile.
type Member struct {
	ID MemberID

	Handle    string
	Email     string
	FirstName string
	LastName  string

	Age            int
	City           string
	Studies        bool
	EducationPlace string
	Works          bool
	WorkPlace      string
	About          string

	// AvatarRef points at a stored avatar asset; nil means no avatar.
	AvatarRef *string

	IsApproved  bool
	IsActive    bool
	IsSuperuser bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns "First Last", falling back to the handle.
func (m Member) DisplayName() string {
	full := NormalizeHumanName(m.FirstName + " " + m.LastName)
	if full != "" {
		return full
	}
	return m.Handle
}

// GreetingName is the name used to address the member in emails.
func (m Member) GreetingName() string {
	if first := strings.TrimSpace(m.FirstName); first != "" {
		return first
	}
	return m.Handle
}

// MeetsApprovalPolicy reports whether an operator approval may take effect:
// adults who study or work.
func (m Member) MeetsApprovalPolicy() bool {
	return m.Age >= MinimumAge && (m.Studies || m.Works)
}

// CanAttendEvents reports whether the member may register for events.
func (m Member) CanAttendEvents() bool {
	return m.IsActive && (m.IsApproved || m.IsSuperuser)
}

// NotificationSettings holds a member's email opt-ins.
type NotificationSettings struct {
	MemberID MemberID

	EmailEventReminders       bool
	EmailEventStatusChanges   bool
	EmailRecommendations      bool
	EmailProfileChanges       bool
	EmailQuestionnaireChanges bool
	EmailNews                 bool
}

// DefaultNotificationSettings returns the settings every new member starts with.
func DefaultNotificationSettings(id MemberID) NotificationSettings {
	return NotificationSettings{
		MemberID:                  id,
		EmailEventReminders:       true,
		EmailEventStatusChanges:   true,
		EmailRecommendations:      true,
		EmailProfileChanges:       true,
		EmailQuestionnaireChanges: true,
		EmailNews:                 false,
	}
}
