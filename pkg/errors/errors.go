package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups error codes by how callers are expected to react to them.
type Kind string

// Error kinds surfaced to the presentation layer.
const (
	KindValidation    Kind = "VALIDATION"
	KindAuthorization Kind = "AUTHORIZATION"
	KindCapacity      Kind = "CAPACITY"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
	KindRemote        Kind = "REMOTE"
	KindInternal      Kind = "INTERNAL"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Kind    Kind   `json:"kind"`
	// UpstreamStatus carries the status returned by the LMS API for remote failures.
	UpstreamStatus int   `json:"upstream_status,omitempty"`
	Err            error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so cloned sentinels still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Kind: kindForStatus(status)}
}

// NewKind creates a new Error with an explicit kind.
func NewKind(kind Kind, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Kind: kind}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Kind: kindForStatus(status), Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInactiveAccount    = NewKind(KindAuthorization, "ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = NewKind(KindAuthorization, "FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = NewKind(KindAuthorization, "UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrModuleNotFound   = NewKind(KindNotFound, "MODULE_NOT_FOUND", http.StatusNotFound, "module not found")
	ErrStudentNotFound  = NewKind(KindNotFound, "STUDENT_NOT_FOUND", http.StatusNotFound, "student not found")
	ErrLecturerNotFound = NewKind(KindNotFound, "LECTURER_NOT_FOUND", http.StatusNotFound, "lecturer not found")

	ErrLecturerNotAssigned        = NewKind(KindCapacity, "LECTURER_NOT_ASSIGNED", http.StatusPreconditionFailed, "module not ready: no lecturer assigned")
	ErrModuleFull                 = NewKind(KindCapacity, "MODULE_FULL", http.StatusConflict, "module is full")
	ErrAlreadyEnrolled            = NewKind(KindCapacity, "ALREADY_ENROLLED", http.StatusConflict, "already enrolled in this module")
	ErrNotEnrolled                = NewKind(KindCapacity, "NOT_ENROLLED", http.StatusConflict, "not enrolled in this module")
	ErrNotALecturer               = NewKind(KindCapacity, "NOT_A_LECTURER", http.StatusPreconditionFailed, "user is not a lecturer")
	ErrLecturerInactive           = NewKind(KindCapacity, "LECTURER_INACTIVE", http.StatusPreconditionFailed, "lecturer is not approved")
	ErrLecturerDepartmentMismatch = NewKind(KindCapacity, "LECTURER_DEPARTMENT_MISMATCH", http.StatusPreconditionFailed, "lecturer belongs to a different department")

	ErrInFlight  = NewKind(KindConflict, "REQUEST_IN_FLIGHT", http.StatusConflict, "a request for this action is already in progress")
	ErrStaleView = NewKind(KindConflict, "STALE_VIEW", http.StatusConflict, "view changed before the response arrived")

	ErrRemote            = NewKind(KindRemote, "REMOTE_ERROR", http.StatusBadGateway, "upstream request failed")
	ErrRemoteUnavailable = NewKind(KindRemote, "REMOTE_UNAVAILABLE", http.StatusServiceUnavailable, "upstream unavailable")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Remote builds a remote failure carrying the upstream status code.
func Remote(err error, upstreamStatus int, message string) *Error {
	clone := *ErrRemote
	clone.Err = err
	clone.UpstreamStatus = upstreamStatus
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// KindOf reports the kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}
	return KindInternal
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthorization
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict, http.StatusPreconditionFailed:
		return KindConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindRemote
	default:
		return KindInternal
	}
}
