package members

import "github.com/luxeladies/community-api/internal/domain"

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

type RegisterInput struct {
	Handle          string
	FirstName       string
	LastName        string
	Email           string
	Age             int
	City            string
	Password        string
	ConfirmPassword string
	Studies         bool
	EducationPlace  string
	Works           bool
	WorkPlace       string
	About           string
}

// ProfilePatch updates the account fields a member edits on their profile.
type ProfilePatch struct {
	Handle    Optional[string] // cannot be null
	Email     Optional[string] // cannot be null
	FirstName Optional[string] // null clears
	LastName  Optional[string] // null clears
	AvatarRef Optional[string] // null removes the avatar
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// QuestionnaireInput is a complete set of questionnaire answers.
type QuestionnaireInput struct {
	FullName                string
	City                    string
	CanTravel               bool
	InterestIDs             []domain.InterestID
	About                   string
	HasChildren             bool
	WantsEventsWithChildren bool
	WhyJoin                 string
	Instagram               *string
	TikTok                  *string
	LinkedIn                *string
	ReferralSource          domain.ReferralSource
	HasFriend               bool
	FriendName              string
}

// ApprovalResult reports the outcome of an approval request. PolicyNotMet is
// set when the member is not an adult who studies or works; nothing changes.
type ApprovalResult struct {
	Member       domain.Member
	Approved     bool
	Changed      bool
	PolicyNotMet bool
}
