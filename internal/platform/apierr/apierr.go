// Package apierr carries transport-level request errors (bad path params,
// malformed payloads) that never reach the canvas aggregate.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a request error with the HTTP status and machine code to respond with.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	default:
		return http.StatusText(e.status())
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) status() int {
	if e.Status == 0 {
		return http.StatusBadRequest
	}
	return e.Status
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// BadRequest is a 400 with a formatted message.
func BadRequest(code, format string, args ...any) *Error {
	return New(http.StatusBadRequest, code, fmt.Errorf(format, args...))
}

// InvalidID rejects a path param that is not a positive integer. The code is
// "invalid_<name>", e.g. "invalid_project_id".
func InvalidID(name string) *Error {
	return BadRequest("invalid_"+name, "%s must be a positive integer", name)
}

// As extracts the request error and its effective status. A zero Status is
// reported as 400.
func As(err error) (*Error, int, bool) {
	var ae *Error
	if !errors.As(err, &ae) || ae == nil {
		return nil, 0, false
	}
	return ae, ae.status(), true
}
