// Package server provides the HTML form pages and the JSON API for the resume builder.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonathan/resume-builder/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Messages []string
}

func (e *ErrValidation) Error() string {
	return "validation error: " + strings.Join(e.Messages, "; ")
}

// ErrBusy indicates no generation slot freed up before the request gave up waiting
type ErrBusy struct{}

func (e *ErrBusy) Error() string {
	return "server is busy generating other resumes, please retry shortly"
}

// ErrBodyTooLarge indicates the request body exceeded the size limit
type ErrBodyTooLarge struct {
	Limit int64
}

func (e *ErrBodyTooLarge) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.Limit)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		schemaErr     *schemas.ValidationError
		busyErr       *ErrBusy
		tooLargeErr   *ErrBodyTooLarge
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.As(err, &tooLargeErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &busyErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessages lists the user-facing messages carried by err.
func errorMessages(err error) []string {
	var (
		validationErr *ErrValidation
		schemaErr     *schemas.ValidationError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Messages
	case errors.As(err, &schemaErr):
		return schemaErr.Messages()
	default:
		return []string{err.Error()}
	}
}
