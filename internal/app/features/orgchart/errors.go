// internal/app/features/orgchart/errors.go
package orgchart

import (
	"errors"
	"net/http"

	"github.com/dalemusser/organigram/internal/app/system/inputval"
	"github.com/dalemusser/organigram/internal/app/system/locale"
)

// Code is the machine-readable error code returned to API clients.
type Code string

const (
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeValidationFailed  Code = "VALIDATION_FAILED"
	CodeParentNotFound    Code = "PARENT_NOT_FOUND"
	CodeCycleDetected     Code = "CYCLE_DETECTED"
	CodeInvalidNodeType   Code = "INVALID_NODE_TYPE"
	CodeNotFound          Code = "NOT_FOUND"
	CodeAlreadyRegistered Code = "ALREADY_REGISTERED"
	CodeMissingID         Code = "MISSING_ID"
	CodeServerError       Code = "SERVER_ERROR"
)

// Error is a domain failure detected before any state was changed.
// Two Errors match under errors.Is when their codes are equal.
type Error struct {
	Code      Code
	Status    int
	MessageID string
	Issues    []inputval.FieldError
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrUnauthenticated   = &Error{Code: CodeUnauthenticated, Status: http.StatusUnauthorized, MessageID: locale.MsgUnauthorized}
	ErrForbidden         = &Error{Code: CodeForbidden, Status: http.StatusForbidden, MessageID: locale.MsgForbidden}
	ErrValidation        = &Error{Code: CodeValidationFailed, Status: http.StatusBadRequest, MessageID: locale.MsgInvalidPayload}
	ErrParentNotFound    = &Error{Code: CodeParentNotFound, Status: http.StatusNotFound, MessageID: locale.MsgParentNotFound}
	ErrCycleDetected     = &Error{Code: CodeCycleDetected, Status: http.StatusBadRequest, MessageID: locale.MsgCycleDetected}
	ErrInvalidNodeType   = &Error{Code: CodeInvalidNodeType, Status: http.StatusBadRequest, MessageID: locale.MsgInvalidNodeType}
	ErrNotFound          = &Error{Code: CodeNotFound, Status: http.StatusNotFound, MessageID: locale.MsgNotFound}
	ErrAlreadyRegistered = &Error{Code: CodeAlreadyRegistered, Status: http.StatusConflict, MessageID: locale.MsgAlreadyRegistered}
	ErrMissingID         = &Error{Code: CodeMissingID, Status: http.StatusBadRequest, MessageID: locale.MsgMissingID}
)

func validationFailed(res *inputval.Result) *Error {
	e := *ErrValidation
	e.Issues = res.All()
	return &e
}

func wrap(base *Error, cause error) *Error {
	e := *base
	e.Err = cause
	return &e
}

// asError returns the domain error carried by err, or nil for
// unexpected failures that should surface as a 500.
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
