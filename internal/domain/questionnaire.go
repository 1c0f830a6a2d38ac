package domain

import "time"

// ReferralSource records how a member heard about the community.
type ReferralSource string

const (
	ReferralInstagram ReferralSource = "instagram"
	ReferralTikTok    ReferralSource = "tiktok"
	ReferralFacebook  ReferralSource = "facebook"
	ReferralYouTube   ReferralSource = "youtube"
	ReferralFriend    ReferralSource = "friend"
	ReferralGoogle    ReferralSource = "google"
)

// Valid reports whether s is one of the known referral sources.
func (s ReferralSource) Valid() bool {
	switch s {
	case ReferralInstagram, ReferralTikTok, ReferralFacebook, ReferralYouTube, ReferralFriend, ReferralGoogle:
		return true
	default:
		return false
	}
}

// Questionnaire is the member's onboarding questionnaire (one per member).
type Questionnaire struct {
	MemberID MemberID

	FullName  string
	City      string
	CanTravel bool

	InterestIDs []InterestID

	About                   string
	HasChildren             bool
	WantsEventsWithChildren bool
	WhyJoin                 string

	Instagram *string
	TikTok    *string
	LinkedIn  *string

	ReferralSource ReferralSource
	HasFriend      bool
	// FriendName is non-empty exactly when HasFriend is true.
	FriendName string

	Completed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WantsKidFriendlyEvents reports whether kid-friendly events should be recommended.
func (q Questionnaire) WantsKidFriendlyEvents() bool {
	return q.HasChildren && q.WantsEventsWithChildren
}

// Interest is an entry in the operator-maintained interest catalog.
type Interest struct {
	ID   InterestID
	Name string
}
