package ir

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the failure taxonomy shared by coercion, storage and the
// reconciliation engine.
//
// Every Error is fatal to the batch that raised it except IntegrityConflict,
// which the engine hands to the entity's conflict resolver when one is
// declared.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity is the entity (or struct kind) being processed.
	Entity string

	// Field is the offending field, when there is one.
	Field string

	// Key is the primary identifier involved, when known.
	Key string

	// Err is the underlying cause (parse error, driver error).
	Err error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeSchemaMismatch: a remote record's field set disagrees with the
	// declared schema. Raised before any write.
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"

	// ErrCodeTypeMismatch: a value cannot be coerced to its declared kind.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeNotFound: a relation target or context owner does not exist
	// locally, or an exactly-one lookup matched zero or several rows.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeIntegrityConflict: a create violated a uniqueness constraint.
	ErrCodeIntegrityConflict ErrorCode = "INTEGRITY_CONFLICT"

	// ErrCodeContextMismatch: records in one batch name different owners.
	ErrCodeContextMismatch ErrorCode = "CONTEXT_MISMATCH"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)

	var attrs []string
	if e.Entity != "" {
		attrs = append(attrs, "entity="+e.Entity)
	}
	if e.Field != "" {
		attrs = append(attrs, "field="+e.Field)
	}
	if e.Key != "" {
		attrs = append(attrs, "key="+e.Key)
	}
	if len(attrs) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(attrs, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first Error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

func hasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsSchemaMismatch reports whether err is a schema mismatch.
func IsSchemaMismatch(err error) bool { return hasCode(err, ErrCodeSchemaMismatch) }

// IsTypeMismatch reports whether err is a type mismatch.
func IsTypeMismatch(err error) bool { return hasCode(err, ErrCodeTypeMismatch) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsIntegrityConflict reports whether err is a uniqueness violation.
func IsIntegrityConflict(err error) bool { return hasCode(err, ErrCodeIntegrityConflict) }

// IsContextMismatch reports whether err is a mixed-owner batch.
func IsContextMismatch(err error) bool { return hasCode(err, ErrCodeContextMismatch) }

// NewSchemaMismatch creates an Error for a record whose keys differ from
// the schema. missing and extra are the two halves of the symmetric
// difference.
func NewSchemaMismatch(entity string, index int, missing, extra []string) *Error {
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ","))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(extra, ","))
	}
	return &Error{
		Code:    ErrCodeSchemaMismatch,
		Message: fmt.Sprintf("record %d: %s", index, strings.Join(parts, "; ")),
		Entity:  entity,
	}
}

// NewTypeMismatch creates an Error for a value that cannot be coerced.
func NewTypeMismatch(entity, field string, raw any, cause error) *Error {
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("cannot coerce %T value %v", raw, raw),
		Entity:  entity,
		Field:   field,
		Err:     cause,
	}
}

// NewNotFound creates an Error for a missing local record.
func NewNotFound(entity, key, message string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: message,
		Entity:  entity,
		Key:     key,
	}
}

// NewIntegrityConflict creates an Error for a uniqueness violation.
func NewIntegrityConflict(entity, key string, cause error) *Error {
	return &Error{
		Code:    ErrCodeIntegrityConflict,
		Message: "record already exists",
		Entity:  entity,
		Key:     key,
		Err:     cause,
	}
}

// NewContextMismatch creates an Error for a batch mixing owners.
func NewContextMismatch(entity, field, want, got string) *Error {
	return &Error{
		Code:    ErrCodeContextMismatch,
		Message: fmt.Sprintf("batch context is %q but a record names %q", want, got),
		Entity:  entity,
		Field:   field,
	}
}
