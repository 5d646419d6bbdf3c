// Package apperrors defines the error taxonomy shared by the orchestration
// core and the HTTP surface. Every failure a caller can observe is one of the
// closed set of kinds below; collaborator failures are kept distinct from
// domain-level rejections so that "the judge was unreachable" is never
// recorded as "the work was rejected".
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindCollaborator
	KindLimitExceeded
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindCollaborator:
		return "collaborator"
	case KindLimitExceeded:
		return "limit_exceeded"
	default:
		return "internal"
	}
}

// AppError carries a kind, a caller-facing message and an optional wrapped cause.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on kind so errors.Is(err, apperrors.Conflict("")) style sentinels work.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return appErr.Kind == e.Kind
	}
	return false
}

// HTTPStatus maps the kind to the status code the transport layer reports.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindCollaborator:
		return http.StatusBadGateway
	case KindLimitExceeded:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func Validation(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func LimitExceeded(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindLimitExceeded, Message: fmt.Sprintf(format, args...)}
}

func Collaborator(msg string, cause error) *AppError {
	return &AppError{Kind: KindCollaborator, Message: msg, Err: cause}
}

func Internal(msg string, cause error) *AppError {
	return &AppError{Kind: KindInternal, Message: msg, Err: cause}
}

// KindOf extracts the kind from any error; non-AppError values are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
