// Package errors provides structured error handling for nixseek.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Cache and store errors
//   - 3XX: Source and network errors
//   - 4XX: Validation errors
//   - 5XX: Internal and search errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryCache indicates cache store I/O errors.
	CategoryCache Category = "CACHE"
	// CategorySource indicates upstream catalog errors.
	CategorySource Category = "SOURCE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Cache errors (200-299). Always absorbed on the search path:
	// a broken store degrades to cache-miss behavior.
	ErrCodeStoreIO      = "ERR_201_STORE_IO"
	ErrCodeStoreCorrupt = "ERR_202_STORE_CORRUPT"

	// Source errors (300-399)
	ErrCodeSourceUnavailable = "ERR_301_SOURCE_UNAVAILABLE"
	ErrCodeSourceTimeout     = "ERR_302_SOURCE_TIMEOUT"

	// Validation errors (400-499)
	ErrCodeInvalidQuery = "ERR_401_INVALID_QUERY"
	ErrCodeQueryEmpty   = "ERR_402_QUERY_EMPTY"
	ErrCodeQueryTooLong = "ERR_403_QUERY_TOO_LONG"

	// Internal / search errors (500-599)
	ErrCodeInternal  = "ERR_501_INTERNAL"
	ErrCodeNoResults = "ERR_502_NO_RESULTS"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryCache
	case '3':
		return CategorySource
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from error code.
// Cache failures are warnings: the search path degrades instead of failing.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryCache:
		return SeverityWarning
	case CategoryConfig:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether operations failing with this code can be
// retried. Source failures are transient; validation failures are not.
func isRetryableCode(code string) bool {
	return categoryFromCode(code) == CategorySource
}
