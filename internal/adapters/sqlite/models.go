package sqlite

// Timestamps are stored as UTC unix nanoseconds so range filters and
// ordering compare integers rather than driver-formatted strings.

type memberModel struct {
	ID             string  `gorm:"primaryKey"`
	Handle         string  `gorm:"not null"`
	HandleKey      string  `gorm:"not null;uniqueIndex"`
	Email          string  `gorm:"not null;default:''"`
	EmailKey       *string `gorm:"uniqueIndex"`
	PasswordHash   string  `gorm:"not null"`
	FirstName      string
	LastName       string
	Age            int
	City           string
	Studies        bool
	EducationPlace string
	Works          bool
	WorkPlace      string
	About          string
	AvatarRef      *string
	IsApproved     bool
	IsActive       bool
	IsSuperuser    bool
	CreatedUnix    int64 `gorm:"index"`
	UpdatedUnix    int64
}

func (memberModel) TableName() string { return "members" }

type settingsModel struct {
	MemberID                  string `gorm:"primaryKey"`
	EmailEventReminders       bool
	EmailEventStatusChanges   bool
	EmailRecommendations      bool
	EmailProfileChanges       bool
	EmailQuestionnaireChanges bool
	EmailNews                 bool
}

func (settingsModel) TableName() string { return "notification_settings" }

type interestModel struct {
	ID      string `gorm:"primaryKey"`
	Name    string `gorm:"not null"`
	NameKey string `gorm:"not null;uniqueIndex"`
}

func (interestModel) TableName() string { return "interests" }

type questionnaireModel struct {
	MemberID                string `gorm:"primaryKey"`
	FullName                string
	City                    string
	CanTravel               bool
	About                   string
	HasChildren             bool
	WantsEventsWithChildren bool
	WhyJoin                 string
	Instagram               *string
	TikTok                  *string
	LinkedIn                *string
	ReferralSource          string
	HasFriend               bool
	FriendName              string
	Completed               bool
	CreatedUnix             int64
	UpdatedUnix             int64
}

func (questionnaireModel) TableName() string { return "questionnaires" }

type questionnaireInterestModel struct {
	MemberID   string `gorm:"primaryKey"`
	InterestID string `gorm:"primaryKey"`
}

func (questionnaireInterestModel) TableName() string { return "questionnaire_interests" }

type eventModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string
	StartsUnix  int64 `gorm:"index"`
	City        string
	Location    string
	KidFriendly bool
	ImageRef    *string
	Capacity    int
	PriceCents  int64
	CreatedUnix int64
	UpdatedUnix int64
}

func (eventModel) TableName() string { return "events" }

type eventInterestModel struct {
	EventID    string `gorm:"primaryKey"`
	InterestID string `gorm:"primaryKey"`
}

func (eventInterestModel) TableName() string { return "event_interests" }

type registrationModel struct {
	ID          string `gorm:"primaryKey"`
	EventID     string `gorm:"not null;uniqueIndex:idx_event_member"`
	MemberID    string `gorm:"not null;uniqueIndex:idx_event_member;index"`
	FullName    string
	ChildName   *string
	ChildAge    *int
	Status      string `gorm:"not null;index"`
	CreatedUnix int64
	UpdatedUnix int64
}

func (registrationModel) TableName() string { return "event_registrations" }

type markerModel struct {
	Key         string `gorm:"primaryKey"`
	ExpiresUnix int64  `gorm:"index"`
}

func (markerModel) TableName() string { return "reminder_markers" }
