// Package server provides the HTTP REST API for the assessment engine.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/career-metric/internal/evaluation"
)

// ErrValidation indicates a malformed path, query or body.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		notFound    *evaluation.NotFoundError
		invalid     *evaluation.ValidationError
		badRequest  *ErrValidation
		persistence *evaluation.PersistenceError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &persistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the message shown to the caller for err. Unexpected
// errors and database causes are logged, not echoed.
func publicMessage(err error) string {
	var persistence *evaluation.PersistenceError
	if errors.As(err, &persistence) {
		return fmt.Sprintf("failed to %s, retry the evaluation", persistence.Op)
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
