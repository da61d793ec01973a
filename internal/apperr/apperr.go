// Package apperr defines the typed error taxonomy shared by handlers and
// repositories. Every error raised below the HTTP boundary is either one of
// these or gets wrapped into Internal by the boundary handler.
package apperr

import "net/http"

// Kind classifies an error into the HTTP class it maps to.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindBadRequest
	KindUnprocessable
	KindNotFound
	KindDatabase
	KindRateLimit
)

// Error is the one error type crossing layer boundaries. Fields carries
// field→message validation failures for unprocessable-entity responses.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to its response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func Authentication(msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

func Authorization(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

func Unprocessable(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindUnprocessable, Message: msg, Fields: fields}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimit, Message: msg}
}

func Database(msg string, err error) *Error {
	return &Error{Kind: KindDatabase, Message: msg, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
