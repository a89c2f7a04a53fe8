package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status a failure should surface as.
type Error struct {
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same status, so errors.Is(err, ErrNotFound)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status
}

var (
	ErrInvalid         = &Error{Status: http.StatusBadRequest}
	ErrUnauthenticated = &Error{Status: http.StatusUnauthorized}
	ErrForbidden       = &Error{Status: http.StatusForbidden}
	ErrNotFound        = &Error{Status: http.StatusNotFound}
	ErrConflict        = &Error{Status: http.StatusConflict}
)

func New(status int, err error) *Error {
	return &Error{Status: status, Err: err}
}

func Invalid(format string, args ...any) *Error {
	return New(http.StatusBadRequest, fmt.Errorf(format, args...))
}

func NotFound(what string) *Error {
	return New(http.StatusNotFound, errors.New(what+" not found"))
}

func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, fmt.Errorf(format, args...))
}

func Unauthenticated() *Error {
	return New(http.StatusUnauthorized, errors.New("Not authenticated"))
}

func Forbidden() *Error {
	return New(http.StatusForbidden, errors.New("Forbidden"))
}

// StatusOf maps any error to a response status; unknown errors are 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
