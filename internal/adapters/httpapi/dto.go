package httpapi

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/luxeladies/community-api/internal/app/admin"
	"github.com/luxeladies/community-api/internal/app/events"
	"github.com/luxeladies/community-api/internal/domain"
)

type Member struct {
	ID             string              `json:"id"`
	Handle         string              `json:"handle"`
	Email          openapi_types.Email `json:"email" format:"email"`
	FirstName      string              `json:"firstName"`
	LastName       string              `json:"lastName"`
	DisplayName    string              `json:"displayName"`
	Age            int                 `json:"age"`
	City           string              `json:"city"`
	Studies        bool                `json:"studies"`
	EducationPlace string              `json:"educationPlace"`
	Works          bool                `json:"works"`
	WorkPlace      string              `json:"workPlace"`
	About          string              `json:"about"`
	AvatarRef      *string             `json:"avatarRef"`
	IsApproved     bool                `json:"isApproved"`
	IsActive       bool                `json:"isActive"`
	IsSuperuser    bool                `json:"isSuperuser"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func memberFromDomain(m domain.Member) Member {
	return Member{
		ID:             string(m.ID),
		Handle:         m.Handle,
		Email:          openapi_types.Email(m.Email),
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		DisplayName:    m.DisplayName(),
		Age:            m.Age,
		City:           m.City,
		Studies:        m.Studies,
		EducationPlace: m.EducationPlace,
		Works:          m.Works,
		WorkPlace:      m.WorkPlace,
		About:          m.About,
		AvatarRef:      m.AvatarRef,
		IsApproved:     m.IsApproved,
		IsActive:       m.IsActive,
		IsSuperuser:    m.IsSuperuser,
		CreatedAt:      m.CreatedAt,
	}
}

func membersFromDomain(ms []domain.Member) []Member {
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, memberFromDomain(m))
	}
	return out
}

type Questionnaire struct {
	FullName                string    `json:"fullName"`
	City                    string    `json:"city"`
	CanTravel               bool      `json:"canTravel"`
	InterestIDs             []string  `json:"interestIds"`
	About                   string    `json:"about"`
	HasChildren             bool      `json:"hasChildren"`
	WantsEventsWithChildren bool      `json:"wantsEventsWithChildren"`
	WhyJoin                 string    `json:"whyJoin"`
	Instagram               *string   `json:"instagram"`
	TikTok                  *string   `json:"tiktok"`
	LinkedIn                *string   `json:"linkedin"`
	ReferralSource          string    `json:"referralSource"`
	HasFriend               bool      `json:"hasFriend"`
	FriendName              string    `json:"friendName"`
	Completed               bool      `json:"completed"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

func questionnaireFromDomain(q domain.Questionnaire) Questionnaire {
	ids := make([]string, 0, len(q.InterestIDs))
	for _, id := range q.InterestIDs {
		ids = append(ids, string(id))
	}
	return Questionnaire{
		FullName:                q.FullName,
		City:                    q.City,
		CanTravel:               q.CanTravel,
		InterestIDs:             ids,
		About:                   q.About,
		HasChildren:             q.HasChildren,
		WantsEventsWithChildren: q.WantsEventsWithChildren,
		WhyJoin:                 q.WhyJoin,
		Instagram:               q.Instagram,
		TikTok:                  q.TikTok,
		LinkedIn:                q.LinkedIn,
		ReferralSource:          string(q.ReferralSource),
		HasFriend:               q.HasFriend,
		FriendName:              q.FriendName,
		Completed:               q.Completed,
		UpdatedAt:               q.UpdatedAt,
	}
}

type NotificationSettings struct {
	EmailEventReminders       bool `json:"emailEventReminders"`
	EmailEventStatusChanges   bool `json:"emailEventStatusChanges"`
	EmailRecommendations      bool `json:"emailRecommendations"`
	EmailProfileChanges       bool `json:"emailProfileChanges"`
	EmailQuestionnaireChanges bool `json:"emailQuestionnaireChanges"`
	EmailNews                 bool `json:"emailNews"`
}

func settingsFromDomain(s domain.NotificationSettings) NotificationSettings {
	return NotificationSettings{
		EmailEventReminders:       s.EmailEventReminders,
		EmailEventStatusChanges:   s.EmailEventStatusChanges,
		EmailRecommendations:      s.EmailRecommendations,
		EmailProfileChanges:       s.EmailProfileChanges,
		EmailQuestionnaireChanges: s.EmailQuestionnaireChanges,
		EmailNews:                 s.EmailNews,
	}
}

func (s NotificationSettings) toDomain(id domain.MemberID) domain.NotificationSettings {
	return domain.NotificationSettings{
		MemberID:                  id,
		EmailEventReminders:       s.EmailEventReminders,
		EmailEventStatusChanges:   s.EmailEventStatusChanges,
		EmailRecommendations:      s.EmailRecommendations,
		EmailProfileChanges:       s.EmailProfileChanges,
		EmailQuestionnaireChanges: s.EmailQuestionnaireChanges,
		EmailNews:                 s.EmailNews,
	}
}

type Interest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func interestsFromDomain(is []domain.Interest) []Interest {
	out := make([]Interest, 0, len(is))
	for _, i := range is {
		out = append(out, Interest{ID: string(i.ID), Name: i.Name})
	}
	return out
}

type Registration struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	MemberID  string    `json:"memberId"`
	FullName  string    `json:"fullName"`
	ChildName *string   `json:"childName"`
	ChildAge  *int      `json:"childAge"`
	Status    string    `json:"status" enum:"pending,approved,rejected"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func registrationFromDomain(r domain.EventRegistration) Registration {
	return Registration{
		ID:        string(r.ID),
		EventID:   string(r.EventID),
		MemberID:  string(r.MemberID),
		FullName:  r.FullName,
		ChildName: r.ChildName,
		ChildAge:  r.ChildAge,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"startsAt"`
	City        string    `json:"city"`
	Location    string    `json:"location"`
	KidFriendly bool      `json:"kidFriendly"`
	InterestIDs []string  `json:"interestIds"`
	ImageRef    *string   `json:"imageRef"`
	Capacity    int       `json:"capacity"`
	// Price is a decimal string with two places.
	Price string `json:"price"`
	// PriceEUR is a decimal string with one place.
	PriceEUR       string        `json:"priceEur"`
	FreeSpots      int           `json:"freeSpots"`
	IsPast         bool          `json:"isPast"`
	MyRegistration *Registration `json:"myRegistration"`
}

func eventFromView(v events.EventView) Event {
	e := v.Event
	ids := make([]string, 0, len(e.InterestIDs))
	for _, id := range e.InterestIDs {
		ids = append(ids, string(id))
	}
	out := Event{
		ID:          string(e.ID),
		Title:       e.Title,
		Description: e.Description,
		StartsAt:    e.StartsAt,
		City:        e.City,
		Location:    e.Location,
		KidFriendly: e.KidFriendly,
		InterestIDs: ids,
		ImageRef:    e.ImageRef,
		Capacity:    e.Capacity,
		Price:       e.Price.StringFixed(2),
		PriceEUR:    v.PriceEUR.StringFixed(1),
		FreeSpots:   v.FreeSpots,
		IsPast:      v.IsPast,
	}
	if v.MyRegistration != nil {
		r := registrationFromDomain(*v.MyRegistration)
		out.MyRegistration = &r
	}
	return out
}

func eventsFromViews(vs []events.EventView) []Event {
	out := make([]Event, 0, len(vs))
	for _, v := range vs {
		out = append(out, eventFromView(v))
	}
	return out
}

// EventRef is the short event shape used in operator lists.
type EventRef struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"startsAt"`
	City     string    `json:"city"`
}

func eventRefsFromDomain(es []domain.Event) []EventRef {
	out := make([]EventRef, 0, len(es))
	for _, e := range es {
		out = append(out, EventRef{ID: string(e.ID), Title: e.Title, StartsAt: e.StartsAt, City: e.City})
	}
	return out
}

type RegistrationRow struct {
	Registration Registration `json:"registration"`
	Event        EventRef     `json:"event"`
	MemberHandle string       `json:"memberHandle"`
	MemberEmail  string       `json:"memberEmail"`
	MemberName   string       `json:"memberName"`
}

func registrationRowsFromAdmin(rows []admin.RegistrationRow) []RegistrationRow {
	out := make([]RegistrationRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, RegistrationRow{
			Registration: registrationFromDomain(r.Registration),
			Event:        EventRef{ID: string(r.Event.ID), Title: r.Event.Title, StartsAt: r.Event.StartsAt, City: r.Event.City},
			MemberHandle: r.Member.Handle,
			MemberEmail:  r.Member.Email,
			MemberName:   r.Member.DisplayName(),
		})
	}
	return out
}

type RegistrationCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

func countsFromAdmin(c admin.Counts) RegistrationCounts {
	return RegistrationCounts{Pending: c.Pending, Approved: c.Approved, Rejected: c.Rejected, Total: c.Total()}
}
