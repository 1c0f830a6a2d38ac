package members

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/luxeladies/community-api/internal/app/notify"
	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/platform/auth/password"
	"github.com/luxeladies/community-api/internal/platform/log"
	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
	"github.com/luxeladies/community-api/internal/ports/out/opsnotify"
	"github.com/luxeladies/community-api/internal/ports/out/questionnairerepo"
)

const (
	maxHandleLen = 30
	maxNameLen   = 30
	maxCityLen   = 50
)

// Dispatcher sends member-facing email notifications.
type Dispatcher interface {
	Send(ctx context.Context, n notify.Notification) error
}

// InterestCatalog validates questionnaire interest selections.
type InterestCatalog interface {
	ListInterests(ctx context.Context) ([]domain.Interest, error)
}

type Deps struct {
	Members        memberrepo.Repository
	Questionnaires questionnairerepo.Repository
	Interests      InterestCatalog
	Clock          clockport.Clock
	Mail           Dispatcher
	Ops            opsnotify.Notifier
	Logger         *log.Logger
}

type Service struct {
	repo           memberrepo.Repository
	questionnaires questionnairerepo.Repository
	interests      InterestCatalog
	clk            clockport.Clock
	mail           Dispatcher
	ops            opsnotify.Notifier
	logger         *log.Logger

	newMemberID func() domain.MemberID

	// Hasher hashes passwords. Tests lower the bcrypt cost.
	Hasher password.Hasher
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:           d.Members,
		questionnaires: d.Questionnaires,
		interests:      d.Interests,
		clk:            d.Clock,
		mail:           d.Mail,
		ops:            d.Ops,
		logger:         d.Logger,
		newMemberID: func() domain.MemberID {
			return domain.MemberID(uuid.NewString())
		},
		Hasher: password.NewHasher(),
	}
	if s.ops == nil {
		s.ops = opsnotify.Nop{}
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	return s
}

// Register creates an unapproved member with default notification settings.
// The member is not emailed; operators get a channel alert.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.Member, error) {
	details := map[string]any{}

	handle := strings.TrimSpace(in.Handle)
	switch {
	case handle == "":
		details["handle"] = "must be non-empty"
	case utf8.RuneCountInString(handle) > maxHandleLen:
		details["handle"] = fmt.Sprintf("must be at most %d characters", maxHandleLen)
	}
	firstName := domain.NormalizeHumanName(in.FirstName)
	lastName := domain.NormalizeHumanName(in.LastName)
	checkName(details, "firstName", firstName)
	checkName(details, "lastName", lastName)

	email := strings.TrimSpace(in.Email)
	if err := validateEmail(email); err != nil {
		details["email"] = err.Error()
	}
	if in.Age < domain.MinimumAge {
		details["age"] = fmt.Sprintf("must be at least %d", domain.MinimumAge)
	}
	city := domain.NormalizeHumanName(in.City)
	switch {
	case city == "":
		details["city"] = "must be non-empty"
	case utf8.RuneCountInString(city) > maxCityLen:
		details["city"] = fmt.Sprintf("must be at most %d characters", maxCityLen)
	}
	if in.Password == "" {
		details["password"] = "must be non-empty"
	} else if in.Password != in.ConfirmPassword {
		details["confirmPassword"] = "passwords do not match"
	}
	if len(details) > 0 {
		return domain.Member{}, validationError("invalid registration", details)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.Member{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clk.Now()
	m := memberrepo.Member{
		ID:           s.newMemberID(),
		Handle:       handle,
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Age:          in.Age,
		City:         city,
		Studies:      in.Studies,
		Works:        in.Works,
		About:        strings.TrimSpace(in.About),
		IsApproved:   false,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Studies {
		m.EducationPlace = strings.TrimSpace(in.EducationPlace)
	}
	if in.Works {
		m.WorkPlace = strings.TrimSpace(in.WorkPlace)
	}

	if err := s.repo.Create(ctx, m, domain.DefaultNotificationSettings(m.ID)); err != nil {
		if ae := uniquenessError(err); ae != nil {
			return domain.Member{}, ae
		}
		return domain.Member{}, err
	}

	out := toDomain(m)
	if err := s.ops.MemberRegistered(ctx, out); err != nil {
		s.logger.WithError(err).WithField("member_id", out.ID).Warn("ops alert for new member failed")
	}
	return out, nil
}

// Authenticate checks a handle-or-email login and password.
func (s *Service) Authenticate(ctx context.Context, login, plain string) (domain.Member, error) {
	m, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, invalidCredentials()
		}
		return domain.Member{}, err
	}
	if err := s.Hasher.Check(m.PasswordHash, plain); err != nil {
		return domain.Member{}, invalidCredentials()
	}
	if !m.IsActive {
		return domain.Member{}, &Error{
			Status:  http.StatusForbidden,
			Code:    "MEMBER_INACTIVE",
			Message: "this account is disabled",
		}
	}
	if !m.IsSuperuser && !m.IsApproved {
		return domain.Member{}, &Error{
			Status:  http.StatusForbidden,
			Code:    "MEMBER_PENDING_APPROVAL",
			Message: "registration is awaiting operator approval",
		}
	}
	return toDomain(m), nil
}

// GetMember returns the member with the given id.
func (s *Service) GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	return toDomain(m), nil
}

// Approve marks the member approved when the approval policy allows it.
// A member that does not meet the policy is left unchanged and no error is returned.
func (s *Service) Approve(ctx context.Context, id domain.MemberID) (ApprovalResult, error) {
	before, err := s.load(ctx, id)
	if err != nil {
		return ApprovalResult{}, err
	}
	if !toDomain(before).MeetsApprovalPolicy() {
		return ApprovalResult{Member: toDomain(before), PolicyNotMet: true}, nil
	}
	if before.IsApproved {
		return ApprovalResult{Member: toDomain(before), Approved: true}, nil
	}

	after := before
	after.IsApproved = true
	after.UpdatedAt = s.clk.Now()
	if err := s.save(ctx, before, after); err != nil {
		return ApprovalResult{}, err
	}
	return ApprovalResult{Member: toDomain(after), Approved: true, Changed: true}, nil
}

// RejectAndDelete removes a member and everything that belongs to them.
func (s *Service) RejectAndDelete(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	return s.remove(ctx, id)
}

// Delete is the operator's explicit delete; it cascades the same way as a rejection.
func (s *Service) Delete(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	return s.remove(ctx, id)
}

func (s *Service) remove(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, memberNotFound()
		}
		return domain.Member{}, err
	}
	return toDomain(m), nil
}

// UpdateProfile applies a partial update to the member's account fields.
func (s *Service) UpdateProfile(ctx context.Context, id domain.MemberID, in ProfilePatch) (domain.Member, error) {
	before, err := s.load(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	after := before
	details := map[string]any{}

	if in.Handle.IsSpecified() {
		handle := strings.TrimSpace(in.Handle.Value())
		switch {
		case in.Handle.IsNull():
			details["handle"] = "cannot be null"
		case handle == "":
			details["handle"] = "must be non-empty"
		case utf8.RuneCountInString(handle) > maxHandleLen:
			details["handle"] = fmt.Sprintf("must be at most %d characters", maxHandleLen)
		default:
			after.Handle = handle
		}
	}
	if in.Email.IsSpecified() {
		if in.Email.IsNull() {
			details["email"] = "cannot be null"
		} else {
			email := strings.TrimSpace(in.Email.Value())
			if err := validateEmail(email); err != nil {
				details["email"] = err.Error()
			} else {
				after.Email = email
			}
		}
	}
	if in.FirstName.IsSpecified() {
		after.FirstName = ""
		if !in.FirstName.IsNull() {
			after.FirstName = domain.NormalizeHumanName(in.FirstName.Value())
		}
		if utf8.RuneCountInString(after.FirstName) > maxNameLen {
			details["firstName"] = fmt.Sprintf("must be at most %d characters", maxNameLen)
		}
	}
	if in.LastName.IsSpecified() {
		after.LastName = ""
		if !in.LastName.IsNull() {
			after.LastName = domain.NormalizeHumanName(in.LastName.Value())
		}
		if utf8.RuneCountInString(after.LastName) > maxNameLen {
			details["lastName"] = fmt.Sprintf("must be at most %d characters", maxNameLen)
		}
	}
	if in.AvatarRef.IsSpecified() {
		if in.AvatarRef.IsNull() {
			after.AvatarRef = nil
		} else {
			ref := strings.TrimSpace(in.AvatarRef.Value())
			after.AvatarRef = &ref
		}
	}
	if len(details) > 0 {
		return domain.Member{}, validationError("invalid profile", details)
	}

	after.UpdatedAt = s.clk.Now()
	if err := s.save(ctx, before, after); err != nil {
		return domain.Member{}, err
	}

	settings, err := s.settingsFor(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("member_id", id).Warn("load notification settings failed")
	} else if settings.EmailProfileChanges {
		s.send(ctx, notify.Notification{
			Kind: notify.KindProfileUpdated,
			To:   after.Email,
			Data: notify.Greeting{RecipientName: toDomain(after).GreetingName()},
		})
	}
	return toDomain(after), nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id domain.MemberID, in ChangePasswordInput) error {
	before, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Hasher.Check(before.PasswordHash, in.OldPassword); err != nil {
		return validationError("invalid password change", map[string]any{"oldPassword": "is incorrect"})
	}
	if in.NewPassword == "" {
		return validationError("invalid password change", map[string]any{"newPassword": "must be non-empty"})
	}
	if in.NewPassword != in.ConfirmPassword {
		return validationError("invalid password change", map[string]any{"confirmPassword": "passwords do not match"})
	}
	hash, err := s.Hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	after := before
	after.PasswordHash = hash
	after.UpdatedAt = s.clk.Now()
	return s.save(ctx, before, after)
}

// EnsureSuperuser creates the bootstrap operator account unless the handle
// or email is already registered. It reports whether an account was created.
func (s *Service) EnsureSuperuser(ctx context.Context, handle, email, plain string) (domain.Member, bool, error) {
	handle = strings.TrimSpace(handle)
	email = strings.TrimSpace(email)
	if handle == "" || plain == "" {
		return domain.Member{}, false, errors.New("superuser bootstrap needs a handle and a password")
	}
	for _, login := range []string{handle, email} {
		if login == "" {
			continue
		}
		existing, err := s.repo.GetByLogin(ctx, login)
		if err == nil {
			return toDomain(existing), false, nil
		}
		if !errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, false, err
		}
	}

	hash, err := s.Hasher.Hash(plain)
	if err != nil {
		return domain.Member{}, false, fmt.Errorf("hash password: %w", err)
	}
	now := s.clk.Now()
	m := memberrepo.Member{
		ID:           s.newMemberID(),
		Handle:       handle,
		Email:        email,
		PasswordHash: hash,
		Age:          domain.MinimumAge,
		IsApproved:   true,
		IsActive:     true,
		IsSuperuser:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, m, domain.DefaultNotificationSettings(m.ID)); err != nil {
		return domain.Member{}, false, err
	}
	return toDomain(m), true, nil
}

// save is the single write path for member records. A false to true change of
// IsApproved sends exactly one member_approved email after the write.
func (s *Service) save(ctx context.Context, before, after memberrepo.Member) error {
	if err := s.repo.Update(ctx, after); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return memberNotFound()
		}
		if ae := uniquenessError(err); ae != nil {
			return ae
		}
		return err
	}
	if !before.IsApproved && after.IsApproved {
		s.send(ctx, notify.Notification{
			Kind: notify.KindMemberApproved,
			To:   after.Email,
			Data: notify.Greeting{RecipientName: toDomain(after).GreetingName()},
		})
	}
	return nil
}

// send delivers a notification and logs failures; they never fail the caller.
func (s *Service) send(ctx context.Context, n notify.Notification) {
	if s.mail == nil || n.To == "" {
		return
	}
	if err := s.mail.Send(ctx, n); err != nil {
		s.logger.WithFields(log.Fields{"kind": n.Kind, "to": n.To}).WithError(err).Warn("notification delivery failed")
	}
}

func (s *Service) load(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return memberrepo.Member{}, memberNotFound()
		}
		return memberrepo.Member{}, err
	}
	return m, nil
}

func uniquenessError(err error) *Error {
	switch {
	case errors.Is(err, memberrepo.ErrHandleTaken):
		return validationError("handle already taken", map[string]any{"handle": "is already taken"})
	case errors.Is(err, memberrepo.ErrEmailTaken):
		return validationError("email already in use", map[string]any{"email": "is already in use"})
	default:
		return nil
	}
}

func checkName(details map[string]any, field, v string) {
	switch {
	case v == "":
		details[field] = "must be non-empty"
	case utf8.RuneCountInString(v) > maxNameLen:
		details[field] = fmt.Sprintf("must be at most %d characters", maxNameLen)
	}
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("must be a valid email address")
	}
	// Ensure no "Name <email@x>" format sneaks in.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}

func toDomain(m memberrepo.Member) domain.Member {
	return m.Domain()
}
