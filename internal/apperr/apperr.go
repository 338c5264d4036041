// Package apperr defines the error kinds every operation reports and the
// uniform result shape returned to API callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrConflict marks a write rejected by a uniqueness constraint. Stores wrap
// it so callers can treat "already exists" as success where that is safe.
var ErrConflict = errors.New("already exists")

type Kind int

const (
	KindDatabase Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "database"
	}
}

// Error is the single error type crossing package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed input. fields may be nil.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Field is a shortcut for a validation error on one field.
func Field(field, message string) *Error {
	return Validation(message, map[string]string{field: message})
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Database wraps a persistence failure.
func Database(op string, err error) *Error {
	return &Error{Kind: KindDatabase, Message: op, Err: err}
}

// KindOf returns the kind of err. Unknown errors count as database failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindDatabase
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Result is the body of every API response.
type Result struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Data    any               `json:"data,omitempty"`
}

// OK wraps data in a successful result.
func OK(message string, data any) Result {
	return Result{Success: true, Message: message, Data: data}
}

// ToResult converts err into an HTTP status and a failed result. Database
// details never reach the caller.
func ToResult(err error) (int, Result) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, Result{Message: "internal error"}
	}
	switch appErr.Kind {
	case KindValidation:
		return http.StatusBadRequest, Result{Message: appErr.Message, Errors: appErr.Fields}
	case KindAuthorization:
		return http.StatusForbidden, Result{Message: appErr.Message}
	case KindNotFound:
		return http.StatusNotFound, Result{Message: appErr.Message}
	default:
		return http.StatusInternalServerError, Result{Message: "database error"}
	}
}
