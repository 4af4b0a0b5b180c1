// Package errs defines the error kinds returned by the dossier workflow.
// Callers match them with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed or incomplete input
	ErrValidation = errors.New("validation error")

	// ErrUnauthenticated marks a request without a valid principal
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrAuthorization marks a role that may not perform the action
	ErrAuthorization = errors.New("authorization error")

	// ErrConflict marks a dossier whose persisted state no longer matches the request
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks a missing dossier, reference or checklist item
	ErrNotFound = errors.New("not found")

	// ErrPersistence marks an infrastructure failure of the database
	ErrPersistence = errors.New("persistence error")
)

// Validation returns an error wrapping ErrValidation
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Authorization returns an error wrapping ErrAuthorization
func Authorization(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}

// Conflict returns an error wrapping ErrConflict
func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFound returns an error wrapping ErrNotFound
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Persistence wraps an infrastructure error so that both ErrPersistence and the cause match
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if Is(err) {
		return err
	}
	return &persistenceError{op: op, err: err}
}

// Is reports whether err already carries one of the kinds above
func Is(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrAuthorization) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPersistence)
}

// HTTPStatus maps an error kind to its response status
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type persistenceError struct {
	op  string
	err error
}

func (e *persistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.op, e.err)
}

func (e *persistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.err}
}
