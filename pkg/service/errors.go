package service

import (
	"github.com/inkforge/contentflow/pkg/storage"
	"github.com/pkg/errors"
)

// ErrWorkflowNotFound is returned by every operation given an unknown
// workflow id. It aliases the store sentinel so callers can test either.
var ErrWorkflowNotFound = storage.ErrNotFound

// ErrInvalidTransition is returned when a lifecycle action is not legal from
// the workflow's current status: pause when not running, resume when not
// paused, cancel when already terminal, rerun when not terminal, execute when
// not pending.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// ErrInvalidRequest marks client errors: malformed creation requests, bad
// stage inputs, unknown actions. The HTTP layer maps it to 400.
var ErrInvalidRequest = errors.New("invalid request")

type invalidRequestError struct {
	error
}

func (e invalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

func (e invalidRequestError) Unwrap() error { return e.error }

// invalidRequest tags err so it matches ErrInvalidRequest while keeping the
// original cause chain intact.
func invalidRequest(err error) error {
	return invalidRequestError{err}
}
