// Package errs provides the unified error type used across the data layer.
//
// Every subsystem (connection, schema, table, entity, filestore) wraps its
// native errors into *errs.Error before returning them to callers. Callers
// use the Is* predicates to handle errors without importing driver-specific
// packages.
//
// Usage:
//
//	// In the driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindQueryFailed, "insert failed", mysqlErr)
//
//	// In a caller, check the error kind:
//	if errs.IsInvalidProperty(err) {
//	    http.Error(w, err.Error(), http.StatusBadRequest)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
type ErrKind int

const (
	ErrKindUnknown              ErrKind = iota
	ErrKindNotFound                     // no rows, no object, no bucket
	ErrKindConnectionFailed             // cannot reach the backend
	ErrKindTimeout                      // context deadline / cancellation
	ErrKindQueryFailed                  // the backend rejected or failed a statement
	ErrKindInvalidInput                 // bad arguments from the caller
	ErrKindPermissionDenied             // access denied / auth failure
	ErrKindConfiguration                // unsupported driver, unreadable config
	ErrKindSchema                       // unknown table, no primary key, catalog failure
	ErrKindInvalidProperty              // unknown column, immutable key, value already set
	ErrKindInvalidPropertyValue         // NULL for a non-nullable column
)

var kindNames = [...]string{
	ErrKindUnknown:              "unknown",
	ErrKindNotFound:             "not_found",
	ErrKindConnectionFailed:     "connection_failed",
	ErrKindTimeout:              "timeout",
	ErrKindQueryFailed:          "query_failed",
	ErrKindInvalidInput:         "invalid_input",
	ErrKindPermissionDenied:     "permission_denied",
	ErrKindConfiguration:        "configuration",
	ErrKindSchema:               "schema",
	ErrKindInvalidProperty:      "invalid_property",
	ErrKindInvalidPropertyValue: "invalid_property_value",
}

// String returns the snake_case name used in messages and HTTP error bodies.
func (k ErrKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[ErrKindUnknown]
	}
	return kindNames[k]
}

// Error is the single error type returned by all subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result
// (no rows, missing object, unknown bucket).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend statement failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsConfiguration reports whether err is a fatal configuration problem.
func IsConfiguration(err error) bool {
	return KindOf(err) == ErrKindConfiguration
}

// IsSchema reports whether err came from table introspection.
func IsSchema(err error) bool {
	return KindOf(err) == ErrKindSchema
}

// IsInvalidProperty reports whether err rejected a property name or write.
func IsInvalidProperty(err error) bool {
	return KindOf(err) == ErrKindInvalidProperty
}

// IsInvalidPropertyValue reports whether err rejected a bound value.
func IsInvalidPropertyValue(err error) bool {
	return KindOf(err) == ErrKindInvalidPropertyValue
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
