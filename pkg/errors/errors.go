package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable, client-visible classification of a failure.
type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUnprocessable   Code = "UNPROCESSABLE"
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
	CodeRateLimit       Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeDependency      Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is rendered to API clients.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

type (
	retry   bool
	details bool
)

func meta(status int, public string, r retry, d details) Metadata {
	return Metadata{HTTPStatus: status, Retryable: bool(r), PublicMessage: public, DetailsAllowed: bool(d)}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:      meta(http.StatusBadRequest, "validation failed", false, true),
	CodeUnauthorized:    meta(http.StatusUnauthorized, "authentication required", false, false),
	CodeForbidden:       meta(http.StatusForbidden, "access denied", false, false),
	CodeNotFound:        meta(http.StatusNotFound, "resource not found", false, false),
	CodeConflict:        meta(http.StatusConflict, "conflict detected", false, true),
	CodeUnprocessable:   meta(http.StatusUnprocessableEntity, "request cannot be fulfilled", false, true),
	CodePayloadTooLarge: meta(http.StatusRequestEntityTooLarge, "request body too large", false, true),
	CodeRateLimit:       meta(http.StatusTooManyRequests, "rate limit exceeded", true, false),
	CodeInternal:        meta(http.StatusInternalServerError, "internal server error", false, false),
	CodeDependency:      meta(http.StatusServiceUnavailable, "dependency unavailable", true, true),
}

// MetadataFor returns the rendering rules for code; unknown codes render as
// internal errors.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error is a classified failure. Message is safe to show to clients for every
// code except CodeInternal; cause stays server-side.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

// Error renders code, message and cause for logs.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf reports the code carried by err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// Retryable reports whether repeating the same request may succeed.
func Retryable(err error) bool {
	return MetadataFor(CodeOf(err)).Retryable
}

func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
