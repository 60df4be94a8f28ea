package errors

import "fmt"

// ErrorCode represents a Rolodex error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE" // 503, absorbed at adapter boundaries
	ErrProvider          ErrorCode = "PROVIDER_ERROR"     // 502
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a record cannot be found.
func NewNotFound(identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("record not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewSourceUnavailable creates a 503 error for a failed source lookup.
// The resolution engine never surfaces this to callers; it exists so
// adapters can report cause before the aggregator downgrades the source
// to a no_results outcome.
func NewSourceUnavailable(source string, err error) *Error {
	msg := "source unavailable"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrSourceUnavailable,
		Status:  503,
		Message: msg,
		Details: map[string]any{"source": source},
	}
}

// NewProvider creates a 502 error for a mail provider API failure.
func NewProvider(operation string, err error) *Error {
	msg := "provider error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrProvider,
		Status:  502,
		Message: msg,
		Details: map[string]any{"operation": operation},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a rolodex Error with the given code.
func Is(err error, code ErrorCode) bool {
	if rErr, ok := err.(*Error); ok {
		return rErr.Code == code
	}
	return false
}
