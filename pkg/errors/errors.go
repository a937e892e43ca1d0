// Package errors gives particula's failures a machine-readable [Code].
//
// The particle core (sampling, scene ticks, gesture resolution) never
// fails: unknown shapes fall back to the default and bad samples mean "no
// hands". Codes are attached at the edges instead, where a config file, a
// request, a recording or a cache backend can be wrong:
//
//	if err := errors.ValidateFactor("scale_damping", k); err != nil {
//	    return errors.Wrap(errors.ErrCodeInvalidConfig, err, "scene")
//	}
//
// The frame server turns a code into an HTTP status with [HTTPStatus] and
// sends [UserMessage] as the human-readable part.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a stable, machine-readable error class.
type Code string

const (
	// Rejected input: flags, config, request bodies, recordings.
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidShape  Code = "INVALID_SHAPE"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidSample Code = "INVALID_SAMPLE"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Live sessions and routes.
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired  Code = "SESSION_EXPIRED"
	ErrCodeSessionLimit    Code = "SESSION_LIMIT"

	// Backends.
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// statuses maps codes to HTTP statuses. Codes not listed are 500.
var statuses = map[Code]int{
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidShape:    http.StatusBadRequest,
	ErrCodeInvalidFormat:   http.StatusBadRequest,
	ErrCodeInvalidConfig:   http.StatusBadRequest,
	ErrCodeInvalidSample:   http.StatusBadRequest,
	ErrCodeInvalidPath:     http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeSessionNotFound: http.StatusNotFound,
	ErrCodeSessionExpired:  http.StatusGone,
	ErrCodeSessionLimit:    http.StatusTooManyRequests,
	ErrCodeNetwork:         http.StatusBadGateway,
	ErrCodeTimeout:         http.StatusGatewayTimeout,
	ErrCodeUnsupported:     http.StatusNotImplemented,
}

// Error carries a Code, a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error renders "CODE: message[: cause]".
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an error with a printf-style message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap creates an error with a printf-style message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// if there is none.
func GetCode(err error) Code {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

// Is reports whether err's code is code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// UserMessage is the message without the code prefix. Errors without a
// code are returned verbatim.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus is the status the frame server responds with for err.
func HTTPStatus(err error) int {
	if s, ok := statuses[GetCode(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}
