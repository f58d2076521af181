// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/client layers.
var (
	// ErrNotFound indicates the requested activity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a create with an id that is already taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates a payload that fails required-field or type constraints.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates the storage or network collaborator could not serve the request.
	ErrUnavailable = errors.New("unavailable")

	// ErrNothingChanged indicates a commit that persisted no rows.
	ErrNothingChanged = errors.New("nothing changed")
)
