package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrDuplicateEnrollment = errors.New("duplicate enrollment")
	ErrInactiveMember      = errors.New("inactive member")
)

// Error is a classified business error with a user-facing message.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the error kind as well as the wrapped cause.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func newf(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return newf(ErrValidation, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newf(ErrNotFound, format, args...)
}

func CapacityExceeded(format string, args ...interface{}) error {
	return newf(ErrCapacityExceeded, format, args...)
}

func DuplicateEnrollment(format string, args ...interface{}) error {
	return newf(ErrDuplicateEnrollment, format, args...)
}

func InactiveMember(format string, args ...interface{}) error {
	return newf(ErrInactiveMember, format, args...)
}

// Wrap classifies err as kind while keeping it reachable through errors.Is/As.
func Wrap(kind, err error, message string) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Status maps an error to the HTTP status the API answers with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrDuplicateEnrollment),
		errors.Is(err, ErrInactiveMember):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show to an API client.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Message != "" {
			return appErr.Message
		}
		return appErr.Kind.Error()
	}
	return "internal server error"
}
