package questionnairerepo

import "errors"

var (
	// ErrNotFound indicates the member has no questionnaire yet.
	ErrNotFound = errors.New("questionnaire not found")

	// ErrAlreadyExists indicates the member already has a questionnaire.
	ErrAlreadyExists = errors.New("questionnaire already exists")
)
