// Package wlerr classifies the failures of the window backend.
//
// Protocol errors are fatal for the operation that hit them. Exhausted errors
// are recoverable diagnostics. Stale errors are internal contract violations
// and carry a stack trace. Unsupported errors mark an optional feature the
// compositor lacks; callers degrade instead of failing.
package wlerr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the category of a backend error.
type Kind int

const (
	KindProtocol Kind = iota
	KindExhausted
	KindStale
	KindUnsupported
	KindCompositor
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindExhausted:
		return "exhausted"
	case KindStale:
		return "stale"
	case KindUnsupported:
		return "unsupported"
	case KindCompositor:
		return "compositor"
	default:
		return "unknown"
	}
}

// Error is a classified backend error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrNotConfigured is returned when a commit is attempted before the
	// compositor sent the initial configure.
	ErrNotConfigured = errors.New("commit before initial configure")
	// ErrExpiredOffer is returned when reading from an offer that already expired.
	ErrExpiredOffer = errors.New("offer expired")
	// ErrBufferRetired is returned when a buffer marked for destruction would be
	// handed to the compositor.
	ErrBufferRetired = errors.New("buffer marked for destruction")
	// ErrWindowDestroyed is returned for requests against a destroyed window.
	ErrWindowDestroyed = errors.New("window destroyed")
)

// Protocol wraps err as a fatal protocol violation.
func Protocol(op string, err error) error {
	return &Error{Kind: KindProtocol, Op: op, Err: err}
}

// Exhausted wraps err as a recoverable resource-exhaustion diagnostic.
func Exhausted(op string, err error) error {
	return &Error{Kind: KindExhausted, Op: op, Err: err}
}

// Stale wraps err as a stale-reference contract violation and records the
// call stack for diagnostics.
func Stale(op string, err error) error {
	return &Error{Kind: KindStale, Op: op, Err: pkgerrors.WithStack(err)}
}

// Unsupported marks err as the absence of an optional feature.
func Unsupported(op string, err error) error {
	return &Error{Kind: KindUnsupported, Op: op, Err: err}
}

// Compositor wraps an error reported by the compositor connection.
func Compositor(op string, err error) error {
	return &Error{Kind: KindCompositor, Op: op, Err: err}
}

// Is reports whether err is a backend error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Fatal reports whether err must abort the current operation.
func Fatal(err error) bool {
	return Is(err, KindProtocol) || Is(err, KindCompositor)
}

// StackTrace returns the stack recorded for a stale-reference error formatted
// with %+v, or an empty string when none was recorded.
func StackTrace(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindStale {
		return ""
	}
	return fmt.Sprintf("%+v", e.Err)
}
