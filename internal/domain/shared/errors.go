// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrAlreadyDone     = errors.New("already done")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "profile", "progress", "quiz"
	Op      string // Operation that failed, e.g., "Fetch", "Append"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Profile domain errors
var (
	ErrProfileNotFound      = NewDomainError("profile", "Fetch", ErrNotFound, "profile not found")
	ErrProfileAlreadyExists = NewDomainError("profile", "Create", ErrAlreadyExists, "profile already exists")
	ErrInvalidUserID        = NewDomainError("profile", "Validate", ErrInvalidID, "invalid user ID")
	ErrProfileSaveFailed    = NewDomainError("profile", "Save", ErrExternalService, "failed to save profile")
	ErrWrongPassword        = NewDomainError("profile", "ChangePassword", ErrUnauthorized, "old password does not match")
)

// Progress domain errors
var (
	ErrInvalidScore        = NewDomainError("progress", "Validate", ErrValueOutOfRange, "score must be between 0 and total questions")
	ErrInvalidLessonID     = NewDomainError("progress", "Validate", ErrInvalidID, "invalid lesson ID")
	ErrProgressWriteFailed = NewDomainError("progress", "Append", ErrExternalService, "failed to append progress event")
)

// Quiz domain errors
var (
	ErrQuizUnavailable    = NewDomainError("quiz", "Start", ErrServiceUnavailable, "test for this lesson is unavailable")
	ErrSessionNotFound    = NewDomainError("quiz", "Get", ErrNotFound, "quiz session not found")
	ErrAlreadySubmitted   = NewDomainError("quiz", "Submit", ErrAlreadyDone, "quiz session already submitted")
	ErrUnansweredQuestion = NewDomainError("quiz", "Submit", ErrInvalidState, "every question must be answered before submission")
	ErrUnknownQuestion    = NewDomainError("quiz", "Select", ErrInvalidID, "question does not belong to this session")
	ErrOptionOutOfRange   = NewDomainError("quiz", "Select", ErrValueOutOfRange, "option index out of range")
)

// Content domain errors
var (
	ErrLessonNotFound = NewDomainError("content", "Fetch", ErrNotFound, "lesson not found")
)

// External service errors
var (
	ErrDictionaryUnavailable = NewDomainError("dictionary", "Lookup", ErrServiceUnavailable, "dictionary API is unavailable")
	ErrDictionaryRateLimited = NewDomainError("dictionary", "Lookup", ErrRateLimited, "dictionary API rate limit exceeded")
	ErrDictionaryBadResponse = NewDomainError("dictionary", "Parse", ErrInvalidInput, "invalid response from dictionary API")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsExternalService checks if the error is from an external service.
// Per the error-handling design, these degrade to cached or default views
// on the read path and surface as failure notifications on the write path.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}
