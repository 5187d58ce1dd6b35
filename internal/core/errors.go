package core

import (
	"errors"
	"fmt"
)

// Kind classifies a core failure. Adapters translate kinds into their own
// transport-level codes; the core never does.
type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidTransition    Kind = "INVALID_TRANSITION"
	KindConflict             Kind = "CONFLICT"
	KindInsufficientStock    Kind = "INSUFFICIENT_STOCK"
	KindReferentialIntegrity Kind = "REFERENTIAL_INTEGRITY"
	KindValidation           Kind = "VALIDATION_ERROR"
	KindStorage              Kind = "STORAGE_ERROR"
)

// Sentinels for errors.Is. Any *Error matches the sentinel of its kind.
var (
	ErrNotFound             = &Error{kind: KindNotFound, message: "not found"}
	ErrInvalidTransition    = &Error{kind: KindInvalidTransition, message: "invalid transition"}
	ErrConflict             = &Error{kind: KindConflict, message: "conflict"}
	ErrInsufficientStock    = &Error{kind: KindInsufficientStock, message: "insufficient stock"}
	ErrReferentialIntegrity = &Error{kind: KindReferentialIntegrity, message: "referential integrity"}
	ErrValidation           = &Error{kind: KindValidation, message: "validation failed"}
	ErrStorage              = &Error{kind: KindStorage, message: "storage failure"}
)

// Error is the single error type returned by core operations and by Store
// implementations.
type Error struct {
	kind      Kind
	message   string
	retryable bool
	cause     error
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func InvalidTransitionf(format string, args ...any) *Error {
	return newError(KindInvalidTransition, format, args...)
}

func Conflictf(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func InsufficientStockf(format string, args ...any) *Error {
	return newError(KindInsufficientStock, format, args...)
}

func ReferentialIntegrityf(format string, args ...any) *Error {
	return newError(KindReferentialIntegrity, format, args...)
}

func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// StorageError wraps an underlying store failure. retryable marks transient
// causes such as lock timeouts, deadlocks and serialization failures.
func StorageError(err error, retryable bool, message string) *Error {
	return &Error{kind: KindStorage, message: message, retryable: retryable, cause: err}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{kind: kind, message: message, cause: err}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindStorage
	}
	return e.kind
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Retryable reports whether the caller may retry the same request unmodified.
func (e *Error) Retryable() bool {
	return e != nil && e.kind == KindStorage && e.retryable
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict) works
// for every conflict regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.kind == t.kind
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// KindOf returns the kind of err. Errors that did not originate in the core
// are reported as storage failures.
func KindOf(err error) Kind {
	if typed := As(err); typed != nil {
		return typed.Kind()
	}
	return KindStorage
}

// IsRetryable reports whether err is a transient storage failure.
func IsRetryable(err error) bool {
	typed := As(err)
	return typed != nil && typed.Retryable()
}

// ensureKind passes core errors through untouched and wraps anything else as a
// non-retryable storage failure so no error leaves the core without a kind.
func ensureKind(err error, message string) error {
	if err == nil {
		return nil
	}
	if As(err) != nil {
		return err
	}
	return StorageError(err, false, message)
}
