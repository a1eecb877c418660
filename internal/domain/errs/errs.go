// Package errs defines the error kinds shared by the scoring engine.
//
// Every error returned by a domain operation carries exactly one kind, so
// callers can branch with errors.Is while the underlying cause stays
// reachable through Unwrap.
package errs

import (
	"errors"
	"strings"
)

// Sentinel error kinds.
var (
	// ErrInvalidInput marks malformed or out-of-range caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData marks a computation without usable data.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrAlreadyResolved marks a second resolution of a prediction.
	ErrAlreadyResolved = errors.New("prediction already resolved")
	// ErrPersistenceFailed marks a storage write failure after a successful compute.
	ErrPersistenceFailed = errors.New("persistence failed")
	// ErrNotFound marks a lookup for an unknown record.
	ErrNotFound = errors.New("not found")
)

var kinds = []error{
	ErrInvalidInput,
	ErrInsufficientData,
	ErrAlreadyResolved,
	ErrPersistenceFailed,
	ErrNotFound,
}

// Error is an operation-scoped error carrying a kind and an optional cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		if e.Kind != nil {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind without a cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind attaches a kind to a cause.
func WrapKind(op string, kind error, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Invalid is shorthand for an ErrInvalidInput with a message.
func Invalid(op, msg string) error {
	return &Error{Op: op, Kind: ErrInvalidInput, Err: errors.New(msg)}
}

// Wrap annotates err with op. The kind, if any, stays reachable through err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// KindOf returns the first known kind found in err's chain, or nil.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Code returns a stable snake_case label for err's kind, or "internal" when
// err carries none.
func Code(err error) string {
	switch KindOf(err) {
	case ErrInvalidInput:
		return "invalid_input"
	case ErrInsufficientData:
		return "insufficient_data"
	case ErrAlreadyResolved:
		return "already_resolved"
	case ErrPersistenceFailed:
		return "persistence_failed"
	case ErrNotFound:
		return "not_found"
	}
	return "internal"
}
