// Package errors provides structured error handling for contractgen.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, lock)
//   - 4XX: Annotation errors (directives, predicates, stale guards)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and lock errors.
	CategoryIO Category = "IO"
	// CategoryAnnotation indicates a malformed, misapplied or unresolvable
	// contract annotation. These are build-time contract errors.
	CategoryAnnotation Category = "ANNOTATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the run cannot continue at all.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the affected file or package failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeFileWrite      = "ERR_203_FILE_WRITE"
	ErrCodeLockFailed     = "ERR_204_LOCK_FAILED"

	// Annotation errors (400-499)
	ErrCodeInvalidDirective     = "ERR_401_INVALID_DIRECTIVE"
	ErrCodeMisappliedDirective  = "ERR_402_MISAPPLIED_DIRECTIVE"
	ErrCodeUnsupportedDirective = "ERR_403_UNSUPPORTED_DIRECTIVE"
	ErrCodeReceiverRequired     = "ERR_404_RECEIVER_REQUIRED"
	ErrCodePredicateNotFound    = "ERR_405_PREDICATE_NOT_FOUND"
	ErrCodePredicateSignature   = "ERR_406_PREDICATE_SIGNATURE"
	ErrCodeOutOfDate            = "ERR_407_OUT_OF_DATE"
	ErrCodeParseFailed          = "ERR_408_PARSE_FAILED"
	ErrCodeRuntimeShadowed      = "ERR_409_RUNTIME_SHADOWED"

	// Internal errors (500-599)
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodePackageLoad = "ERR_502_PACKAGE_LOAD"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "401" from "ERR_401_INVALID_DIRECTIVE")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryAnnotation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigInvalid, ErrCodePackageLoad:
		return SeverityFatal
	case ErrCodeOutOfDate:
		return SeverityWarning
	}
	return SeverityError
}
