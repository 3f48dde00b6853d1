// Package errors provides a lightweight structured error type (BookTypstError)
// for category-based classification in the CLI and the conversion service.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a BookTypst error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Book loading and I/O
	CategoryBook       ErrorCategory = "book"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Conversion pipeline
	CategoryConversion ErrorCategory = "conversion"
	CategoryRender     ErrorCategory = "render"

	// Broken pipeline invariants
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// BookTypstError is a structured error with category, retryability, and context
type BookTypstError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BookTypstError
type ContextFields map[string]any

// Error implements the error interface
func (e *BookTypstError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping
func (e *BookTypstError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BookTypstError) WithContext(key string, value any) *BookTypstError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BookTypstError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BookTypstError {
	return &BookTypstError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BookTypstError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BookTypstError {
	return &BookTypstError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapRetryable creates a new retryable BookTypstError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *BookTypstError {
	return &BookTypstError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// As finds the first BookTypstError in err's chain.
func As(err error) (*BookTypstError, bool) {
	var bte *BookTypstError
	if stderrors.As(err, &bte) {
		return bte, true
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if bte, ok := As(err); ok {
		return bte.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if bte, ok := As(err); ok {
		return bte.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a BookTypstError
func GetCategory(err error) ErrorCategory {
	if bte, ok := As(err); ok {
		return bte.Category
	}
	return CategoryInternal
}
