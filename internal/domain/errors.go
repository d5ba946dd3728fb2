package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoAbstract indicates that a preprint record carries no abstract,
	// so similarity-based matching cannot run at all. This is a distinct,
	// non-retryable condition, not a failure.
	ErrNoAbstract = errors.New("no abstract available")

	// ErrServiceUnavailable indicates that an external service could not
	// be reached or answered with a server-side failure. Callers must be
	// able to distinguish this from "searched and found nothing".
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRateLimited indicates that a request was rate limited.
	ErrRateLimited = errors.New("rate limited")
)

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError creates a NotFoundError for the given entity and ID.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ExternalAPIError provides details about an external API failure.
// Every ExternalAPIError matches ErrServiceUnavailable under errors.Is:
// whatever the proximate cause, the service could not give an answer and
// the resolution outcome must be "temporarily unavailable", never "no match".
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// NewExternalAPIError creates an ExternalAPIError for the given source.
// StatusCode is zero for transport-level failures that never produced a
// response.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API error: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the service-unavailable sentinel.
func (e *ExternalAPIError) Is(target error) bool {
	return target == ErrServiceUnavailable
}
