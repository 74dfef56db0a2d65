// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates the caller provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates the request collides with existing state.
	ErrConflict = errors.New("conflict")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrCatalogUnavailable indicates no requirements catalog is loaded.
	ErrCatalogUnavailable = errors.New("requirements catalog unavailable")
)

// ValidationError represents input validation failures.
// Unknown fields, bad types, unknown program names, unparseable meeting text
// and missing required fields all surface as a ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Is reports ErrInvalidInput so callers can match on the sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// MissingFieldsError builds the validation error for absent required fields.
func MissingFieldsError(fields []string) *ValidationError {
	return &ValidationError{
		Field:   strings.Join(fields, ","),
		Message: "Missing required fields: " + strings.Join(fields, ", "),
	}
}

// NotFoundError reports a missing resource identified by key.
type NotFoundError struct {
	Resource string
	Key      string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Is reports ErrNotFound so callers can match on the sentinel.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new not-found error.
func NewNotFoundError(resource, key, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Key:      key,
		Message:  message,
	}
}

// Conflict reasons.
const (
	ReasonDuplicateCRN    = "duplicate_crn"
	ReasonScheduleOverlap = "schedule_overlap"
)

// ConflictError is returned when a schedule change collides with existing state.
// CRN names the entry already in the schedule that caused the rejection.
type ConflictError struct {
	Reason  string `json:"reason"`
	CRN     string `json:"crn"`
	Message string `json:"message"`
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Is reports ErrConflict so callers can match on the sentinel.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new conflict error.
func NewConflictError(reason, crn, message string) *ConflictError {
	return &ConflictError{
		Reason:  reason,
		CRN:     crn,
		Message: message,
	}
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict reports whether err is or wraps ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsRateLimitExceeded reports whether err is or wraps ErrRateLimitExceeded.
func IsRateLimitExceeded(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}
