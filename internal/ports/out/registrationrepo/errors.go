package registrationrepo

import "errors"

var (
	// ErrNotFound indicates the requested registration does not exist.
	ErrNotFound = errors.New("registration not found")

	// ErrAlreadyExists indicates a registration already exists for the (event, member) pair.
	ErrAlreadyExists = errors.New("registration already exists")
)
