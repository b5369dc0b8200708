package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(code string, format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, code, fmt.Errorf(format, args...))
}

func AccessDenied(code string, format string, args ...interface{}) *Error {
	return New(http.StatusForbidden, code, fmt.Errorf(format, args...))
}

func Validation(code string, format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, code, fmt.Errorf(format, args...))
}

func Internal(code string, err error) *Error {
	return New(http.StatusInternalServerError, code, err)
}

func IsNotFound(err error) bool     { return statusOf(err) == http.StatusNotFound }
func IsAccessDenied(err error) bool { return statusOf(err) == http.StatusForbidden }
func IsValidation(err error) bool   { return statusOf(err) == http.StatusBadRequest }

func statusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// StatusAndCode maps any error to an HTTP status and stable code for the
// response envelope. Non-apperr errors are infrastructure failures.
func StatusAndCode(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status, ae.Code
	}
	return http.StatusInternalServerError, "internal_error"
}
