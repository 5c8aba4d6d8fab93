// Package apperror defines the application's error taxonomy.
//
// Every failure a service can produce falls into one of a small fixed set of
// kinds, each represented by a sentinel error. Handlers map the kind to an
// HTTP status with errors.Is; nothing else in the codebase invents status
// codes. The kinds:
//
//	ErrValidation   → 400  malformed input, rejected before any store write
//	ErrUnauthorized → 401  bad password, bad PIN, invalid or missing token
//	ErrForbidden    → 403  unverified account, voting rights already used
//	ErrNotFound     → 404  unknown user or candidate
//	ErrConflict     → 409  duplicate registration
//	ErrDependency   → 500  store or mail collaborator failure
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDependency   = errors.New("dependency failure")
)

type AppError struct {
	Err     error  // sentinel kind, matched with errors.Is
	Message string // human-readable, safe to return to the client
	Field   string // optional: input field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for failed authentication: a wrong
// password, a wrong vote PIN, or a missing/invalid token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Dependency wraps a collaborator failure (store unreachable, mail delivery
// failed). The message stays generic; the wrapped cause is for logs only.
func Dependency(message string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrDependency, cause),
		Message: message,
	}
}
