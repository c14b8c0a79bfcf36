package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryMutation   Category = "mutation"
	CategoryCache      Category = "cache"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// Registered error codes.
const (
	CodeValidationFailed = "F001"
	CodeMutationFailed   = "F002"
	CodeIncompleteTable  = "F003"
	CodeUnknownRoute     = "F004"
	CodeNotFound         = "F005"
	CodeConfigNotFound   = "F010"
	CodeConfigParse      = "F011"
	CodeConfigInvalid    = "F012"
)

// Sentinels for errors.Is. A FeedError matches a sentinel when the codes agree.
var (
	ErrValidationFailed = &FeedError{Code: CodeValidationFailed}
	ErrMutationFailed   = &FeedError{Code: CodeMutationFailed}
	ErrNotFound         = &FeedError{Code: CodeNotFound}
)

// FeedError is a structured error with a stable code, a category and an
// optional hint for the user.
type FeedError struct {
	// Code is a unique error identifier (e.g., "F001").
	Code string

	// Category is the error type (validation, mutation, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, e.g. the remote reason text.
	Detail string

	// Field names the offending input for validation errors.
	Field string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *FeedError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *FeedError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a FeedError with the same code.
func (e *FeedError) Is(target error) bool {
	t, ok := target.(*FeedError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithDetail adds a detailed explanation to the error.
func (e *FeedError) WithDetail(d string) *FeedError {
	e.Detail = d
	return e
}

// WithField records the input field the error refers to.
func (e *FeedError) WithField(f string) *FeedError {
	e.Field = f
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *FeedError) WithSuggestion(s string) *FeedError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *FeedError) Wrap(err error) *FeedError {
	e.Wrapped = err
	return e
}

// New creates a FeedError from a registered error code.
func New(code string) *FeedError {
	template, ok := registry[code]
	if !ok {
		return &FeedError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &FeedError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new FeedError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *FeedError {
	return &FeedError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a FeedError.
// Errors that already carry a FeedError are returned as is.
func FromError(err error, code string) *FeedError {
	if err == nil {
		return nil
	}
	var fe *FeedError
	if stderrors.As(err, &fe) {
		return fe
	}
	return New(code).Wrap(err).WithDetail(err.Error())
}

// Validation is shorthand for a ValidationFailed error on field.
func Validation(field, detail string) *FeedError {
	return New(CodeValidationFailed).WithField(field).WithDetail(detail)
}

// Mutation is shorthand for a MutationFailed error carrying reason text.
func Mutation(reason string) *FeedError {
	return New(CodeMutationFailed).WithDetail(reason)
}
