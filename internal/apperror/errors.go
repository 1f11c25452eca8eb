package apperror

import (
	"errors"
	"fmt"
)

// Domain errors. Expected, user-facing, recovered at the session or command
// boundary and rendered as a notice. Never logged as faults.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrProtected     = errors.New("entry is favorited and protected from deletion")
	ErrInvalidRange  = errors.New("episode count out of range")
	ErrInvalidStatus = errors.New("invalid watch status")
	ErrConflict      = errors.New("a session is already active on this surface")
	ErrNoSession     = errors.New("no live session on this surface")
	ErrNotOwner      = errors.New("event actor does not own this session")
)

// IsDomain reports whether err belongs to the expected, renderable taxonomy.
func IsDomain(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrAlreadyExists, ErrProtected,
		ErrInvalidRange, ErrInvalidStatus,
		ErrConflict, ErrNoSession, ErrNotOwner,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// TransientError wraps failures of external collaborators (metadata service,
// persistence layer) that callers may surface as "try again later".
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

func Transient(cause error) error {
	if cause == nil {
		return nil
	}
	return &TransientError{Cause: cause}
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// InternalError marks anything unexpected. It terminates the owning session
// and is logged with full context, but never crashes the process.
type InternalError struct {
	Cause error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal failure: %v", e.Cause)
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func Internal(cause error) error {
	if cause == nil {
		return nil
	}
	return &InternalError{Cause: cause}
}

func IsInternal(err error) bool {
	var i *InternalError
	return errors.As(err, &i)
}
