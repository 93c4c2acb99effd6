package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryBorrow   Category = "borrow"
	CategoryList     Category = "list"
	CategorySpawn    Category = "spawn"
	CategoryExecutor Category = "executor"
	CategoryBackend  Category = "backend"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Error is a structured error with a registry code and a fix suggestion.
type Error struct {
	// Code is a unique error identifier (e.g., "S001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation of the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// Violation is the panic value raised for a broken usage contract.
// It is never returned as an error: recovering from one leaves the engine in
// an undefined state.
type Violation struct {
	Cause *Error
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return "liveui: contract violation: " + v.Cause.FormatCompact()
}

// Unwrap returns the registry error describing the violation.
func (v *Violation) Unwrap() error {
	return v.Cause
}

// Code returns the registry code of the violation.
func (v *Violation) Code() string {
	return v.Cause.Code
}

// Panic raises a contract violation for the registered code. The formatted
// arguments describe the concrete offending call.
func Panic(code string, format string, args ...any) {
	e := New(code)
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	panic(&Violation{Cause: e})
}

// IsViolation reports whether a recovered panic value is a contract
// violation, and returns it.
func IsViolation(r any) (*Violation, bool) {
	v, ok := r.(*Violation)
	return v, ok
}
