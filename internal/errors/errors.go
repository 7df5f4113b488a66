package errors

import (
	"errors"
	"fmt"
	"go/token"
)

// GenError is the structured error type for contractgen.
// It provides rich context for error handling, logging, and user presentation.
type GenError struct {
	// Code is the unique error code (e.g., "ERR_405_PREDICATE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Annotation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Position is the source location the error refers to, if any.
	Position token.Position

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface. Errors with a source position read
// like compiler diagnostics so editors can jump to them.
func (e *GenError) Error() string {
	if e.Position.IsValid() {
		return fmt.Sprintf("%s: %s [%s]", e.Position, e.Message, e.Code)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GenError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with GenError.
func (e *GenError) Is(target error) bool {
	if t, ok := target.(*GenError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *GenError) WithDetail(key, value string) *GenError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *GenError) WithSuggestion(suggestion string) *GenError {
	e.Suggestion = suggestion
	return e
}

// New creates a new GenError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *GenError {
	return &GenError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// At creates a GenError anchored at a source position.
func At(code string, pos token.Position, format string, args ...any) *GenError {
	e := New(code, fmt.Sprintf(format, args...), nil)
	e.Position = pos
	return e
}

// Wrap creates a GenError from an existing error.
// The error's message becomes the GenError message.
func Wrap(code string, err error) *GenError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *GenError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *GenError {
	return New(ErrCodeFileNotFound, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *GenError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the whole run.
func IsFatal(err error) bool {
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a GenError.
// Returns empty string if not a GenError.
func GetCode(err error) string {
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// GetCategory extracts the category from a GenError.
// Returns empty string if not a GenError.
func GetCategory(err error) Category {
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Category
	}
	return ""
}
