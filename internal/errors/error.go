package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryResolution Category = "resolution"
	CategoryLoad       Category = "load"
	CategoryCLI        Category = "cli"
)

// Kind mirrors the host exception name a failure corresponds to.
type Kind string

const (
	KindTypeError         Kind = "TypeError"
	KindSyntaxError       Kind = "SyntaxError"
	KindNotSupportedError Kind = "NotSupportedError"
	KindNetworkError      Kind = "NetworkError"
)

// Error is a structured error with a code, the element it concerns and a fix hint.
type Error struct {
	// Code is a unique error identifier (e.g., "E210").
	Code string

	// Category is the error class (config, resolution, load, cli).
	Category Category

	// Kind is the host exception name this error maps to.
	Kind Kind

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Name is the element name being defined, if any.
	Name string

	// URL is the module URL involved, if any.
	URL string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Name != "" {
		msg += fmt.Sprintf(" (name %q", e.Name)
		if e.URL != "" {
			msg += fmt.Sprintf(", url %q", e.URL)
		}
		msg += ")"
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

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithName records the element name the error concerns.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithURL records the module URL the error concerns.
func (e *Error) WithURL(url string) *Error {
	e.URL = url
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithKind overrides the host exception kind.
func (e *Error) WithKind(k Kind) *Error {
	e.Kind = k
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
		Kind:     template.Kind,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
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

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code string) bool {
	return stderrors.Is(err, &Error{Code: code})
}

// CategoryOf returns the category of the first *Error in err's chain.
func CategoryOf(err error) Category {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category
	}
	return ""
}
