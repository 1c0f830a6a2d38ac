package memberrepo

import "errors"

var (
	// ErrNotFound indicates the requested member does not exist.
	ErrNotFound = errors.New("member not found")

	// ErrAlreadyExists indicates a member already exists with the provided ID.
	ErrAlreadyExists = errors.New("member already exists")

	// ErrHandleTaken indicates another member uses the handle (case-insensitive).
	ErrHandleTaken = errors.New("member handle already taken")

	// ErrEmailTaken indicates another member uses the email (case-insensitive).
	ErrEmailTaken = errors.New("member email already taken")
)
