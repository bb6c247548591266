package core

import (
	"context"
	"errors"
	"fmt"
)

// Category sentinels. Wrap them with NewError (or fmt.Errorf("%w")) so that
// callers can classify failures with errors.Is.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrExternalService  = errors.New("external service failure")
	ErrAssetUnavailable = errors.New("asset unavailable")
)

// Specific sentinels.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrHopLimitExceeded = fmt.Errorf("hop limit exceeded: %w", ErrExternalService)
	ErrTurnTimeout      = fmt.Errorf("turn timed out: %w", ErrExternalService)
	ErrCircuitOpen      = fmt.Errorf("circuit open: %w", ErrExternalService)
)

// Kind is a machine-parseable error category used for logging and reply
// selection.
type Kind string

const (
	KindUnknown          Kind = "UNKNOWN"
	KindConfiguration    Kind = "CONFIGURATION"
	KindInvalidArgument  Kind = "INVALID_ARGUMENT"
	KindExternalService  Kind = "EXTERNAL_SERVICE"
	KindAssetUnavailable Kind = "ASSET_UNAVAILABLE"
	KindTimeout          Kind = "TIMEOUT"
	KindHopLimit         Kind = "HOP_LIMIT"
)

// Error wraps a sentinel with operation context.
type Error struct {
	Op     string // operation name (e.g., "agent.New")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new *Error.
func NewError(op string, err error, detail string) *Error {
	return &Error{Op: op, Err: err, Detail: detail}
}

// ConfigErrorf is shorthand for a configuration error with a formatted detail.
func ConfigErrorf(op, format string, args ...any) *Error {
	return NewError(op, ErrConfiguration, fmt.Sprintf(format, args...))
}

// KindOf maps err onto the error taxonomy.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrHopLimitExceeded):
		return KindHopLimit
	case errors.Is(err, ErrTurnTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrAssetUnavailable):
		return KindAssetUnavailable
	case errors.Is(err, ErrExternalService):
		return KindExternalService
	default:
		return KindUnknown
	}
}
