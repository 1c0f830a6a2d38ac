package memberrepo

import (
	"context"
	"time"

	"github.com/luxeladies/community-api/internal/domain"
)

// Member is the persistence shape used by the member repository.
// It carries the password hash, which never leaves the app layer.
type Member struct {
	ID domain.MemberID

	Handle       string
	Email        string
	PasswordHash string

	FirstName string
	LastName  string

	Age            int
	City           string
	Studies        bool
	EducationPlace string
	Works          bool
	WorkPlace      string
	About          string
	AvatarRef      *string

	IsApproved  bool
	IsActive    bool
	IsSuperuser bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Approved          *bool
	ActiveOnly        bool
	ExcludeSuperusers bool
}

// Repository provides access to persisted members and their notification settings.
//
// Result ordering expectations:
// - List returns members ordered by CreatedAt ascending, ties broken by ID.
type Repository interface {
	// Create stores the member together with its notification settings in one transaction.
	Create(ctx context.Context, m Member, settings domain.NotificationSettings) error
	Update(ctx context.Context, m Member) error
	// Delete removes the member and everything that references it.
	Delete(ctx context.Context, id domain.MemberID) error

	GetByID(ctx context.Context, id domain.MemberID) (Member, error)
	// GetByLogin matches handle or email, case-insensitively.
	GetByLogin(ctx context.Context, login string) (Member, error)

	List(ctx context.Context, f ListFilter) ([]Member, error)

	// GetSettings returns the stored settings, or ErrNotFound when none exist.
	GetSettings(ctx context.Context, id domain.MemberID) (domain.NotificationSettings, error)
	SaveSettings(ctx context.Context, s domain.NotificationSettings) error
}

// Domain returns the member without persistence-only fields.
func (m Member) Domain() domain.Member {
	out := domain.Member{
		ID:             m.ID,
		Handle:         m.Handle,
		Email:          m.Email,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Age:            m.Age,
		City:           m.City,
		Studies:        m.Studies,
		EducationPlace: m.EducationPlace,
		Works:          m.Works,
		WorkPlace:      m.WorkPlace,
		About:          m.About,
		IsApproved:     m.IsApproved,
		IsActive:       m.IsActive,
		IsSuperuser:    m.IsSuperuser,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.AvatarRef != nil {
		ref := *m.AvatarRef
		out.AvatarRef = &ref
	}
	return out
}
