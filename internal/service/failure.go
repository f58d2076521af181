package service

import (
	"errors"
	"fmt"

	"github.com/and161185/activities/internal/api"
	"github.com/and161185/activities/internal/errs"
)

// Failure is the classified outcome of a rejected request. It never carries
// storage error text in Message; the cause is kept for logs only.
type Failure struct {
	Kind    api.ErrorKind
	Message string
	Fields  map[string]string
	err     error
}

func (f *Failure) Error() string {
	if len(f.Fields) == 0 {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s %v", f.Kind, f.Message, f.Fields)
}

// Unwrap returns the underlying cause, if any.
func (f *Failure) Unwrap() error { return f.err }

// Is matches the sentinel that corresponds to the failure kind.
func (f *Failure) Is(target error) bool {
	switch f.Kind {
	case api.KindNotFound:
		return target == errs.ErrNotFound
	case api.KindConflict:
		return target == errs.ErrAlreadyExists
	case api.KindBadRequest:
		return target == errs.ErrValidation
	case api.KindUnavailable:
		return target == errs.ErrUnavailable
	}
	return false
}

// Body returns the wire representation of f.
func (f *Failure) Body() api.ErrorBody {
	return api.ErrorBody{Kind: f.Kind, Message: f.Message, Errors: f.Fields}
}

func notFound(id string) *Failure {
	return &Failure{Kind: api.KindNotFound, Message: fmt.Sprintf("activity %q not found", id)}
}

func conflict(id string) *Failure {
	return &Failure{Kind: api.KindConflict, Message: fmt.Sprintf("activity %q already exists", id)}
}

func badRequest(msg string, fields map[string]string) *Failure {
	return &Failure{Kind: api.KindBadRequest, Message: msg, Fields: fields}
}

func unavailable(msg string, cause error) *Failure {
	return &Failure{Kind: api.KindUnavailable, Message: msg, err: cause}
}

// AsFailure classifies err. Failures pass through; repository sentinels are
// translated; anything else is Unavailable.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return &Failure{Kind: api.KindNotFound, Message: "activity not found", err: err}
	case errors.Is(err, errs.ErrAlreadyExists):
		return &Failure{Kind: api.KindConflict, Message: "activity already exists", err: err}
	case errors.Is(err, errs.ErrValidation):
		return &Failure{Kind: api.KindBadRequest, Message: "validation failed", err: err}
	case errors.Is(err, errs.ErrNothingChanged):
		return unavailable("problem saving changes", err)
	default:
		return unavailable("storage unavailable", err)
	}
}
