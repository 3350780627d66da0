package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
)

// Error carries a user-facing message on top of one of the sentinel kinds.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Is lets errors.Is match the sentinel kind directly.
func (e *Error) Is(target error) bool { return e.kind == target }

func NotFound(msg string) error        { return &Error{kind: ErrNotFound, msg: msg} }
func InvalidArgument(msg string) error { return &Error{kind: ErrInvalidArgument, msg: msg} }
func Unauthenticated(msg string) error { return &Error{kind: ErrUnauthenticated, msg: msg} }
func Forbidden(msg string) error       { return &Error{kind: ErrForbidden, msg: msg} }
func Conflict(msg string) error        { return &Error{kind: ErrConflict, msg: msg} }

// Status maps an error chain to the HTTP status it should be answered with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the innermost user-facing message, or a generic one for
// errors that are not part of the taxonomy.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	if Status(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return errors.Cause(err).Error()
}
