package errors

import (
	"fmt"
)

// SeekError is the structured error type for nixseek.
// It provides rich context for error handling, logging, and user presentation.
type SeekError struct {
	// Code is the unique error code (e.g., "ERR_301_SOURCE_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Cache, Source, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user
	// (e.g., a "did you mean" package name).
	Suggestion string
}

// Error implements the error interface.
func (e *SeekError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SeekError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SeekError.
func (e *SeekError) Is(target error) bool {
	if t, ok := target.(*SeekError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SeekError) WithDetail(key, value string) *SeekError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *SeekError) WithSuggestion(suggestion string) *SeekError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SeekError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SeekError {
	return &SeekError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SeekError from an existing error.
// The error's message becomes the SeekError message.
func Wrap(code string, err error) *SeekError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SeekError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StoreError creates a persistent-store I/O error. Store errors carry
// warning severity: callers absorb them and degrade to cache-miss behavior.
func StoreError(message string, cause error) *SeekError {
	return New(ErrCodeStoreIO, message, cause)
}

// SourceUnavailable creates an error for a failed upstream source fetch.
func SourceUnavailable(source string, cause error) *SeekError {
	return New(ErrCodeSourceUnavailable,
		fmt.Sprintf("source %s unavailable", source), cause).
		WithDetail("source", source)
}

// SourceTimeout creates an error for a source fetch exceeding the
// per-query timeout. Treated identically to SourceUnavailable by callers.
func SourceTimeout(source string, cause error) *SeekError {
	return New(ErrCodeSourceTimeout,
		fmt.Sprintf("source %s timed out", source), cause).
		WithDetail("source", source)
}

// InvalidQuery creates a validation error for a rejected query string.
func InvalidQuery(message string) *SeekError {
	return New(ErrCodeInvalidQuery, message, nil)
}

// NoResults creates the hard failure returned when every requested source
// failed or returned nothing. Distinct from an empty success so callers can
// tell "nothing matched" from "could not search".
func NoResults(query string, cause error) *SeekError {
	return New(ErrCodeNoResults,
		fmt.Sprintf("no results for %q", query), cause).
		WithDetail("query", query)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SeekError); ok {
		return se.Retryable
	}
	return false
}

// GetCode extracts the error code from a SeekError.
// Returns empty string if not a SeekError.
func GetCode(err error) string {
	if se, ok := err.(*SeekError); ok {
		return se.Code
	}
	return ""
}

// GetSuggestion extracts the user suggestion from a SeekError, if any.
func GetSuggestion(err error) string {
	if se, ok := err.(*SeekError); ok {
		return se.Suggestion
	}
	return ""
}
