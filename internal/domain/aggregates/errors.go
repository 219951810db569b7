package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes failure semantics across the storage, service and
// transport layers. Handlers translate codes into HTTP statuses.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeForbidden          ErrorCode = "forbidden"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeStorage            ErrorCode = "storage"
	CodeInternal           ErrorCode = "internal"
)

// Code sentinels usable with errors.Is.
var (
	ErrNotFound   = &Error{Code: CodeNotFound}
	ErrForbidden  = &Error{Code: CodeForbidden}
	ErrConflict   = &Error{Code: CodeConflict}
	ErrValidation = &Error{Code: CodeValidation}
	ErrStorage    = &Error{Code: CodeStorage}
)

// Error is the canonical typed error.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches code-only sentinels such as ErrNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if t.Op != "" || t.Message != "" || t.Cause != nil {
		return e == t
	}
	return e.Code == t.Code
}

// NewError builds an error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Errorf is NewError with a formatted message and no cause.
func Errorf(code ErrorCode, op, format string, args ...any) error {
	return NewError(code, op, fmt.Sprintf(format, args...), nil)
}

// Wrap annotates an existing error with a code.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or a wrapped err) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// CodeOf extracts the code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// MessageOf returns the innermost human readable message without the op/code decoration.
func MessageOf(err error) string {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	if aggErr.Message != "" {
		return aggErr.Message
	}
	return string(aggErr.Code)
}
