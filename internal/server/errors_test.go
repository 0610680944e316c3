package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{Messages: []string{"email must be a valid email address"}}, http.StatusBadRequest},
		{"schema", &schemas.ValidationError{Errors: []schemas.FieldError{{Field: "skills", Message: "wrong type"}}}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("decode: %w", &ErrValidation{}), http.StatusBadRequest},
		{"too large", &ErrBodyTooLarge{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"busy", &ErrBusy{}, http.StatusServiceUnavailable},
		{"render", &rendering.RenderError{Message: "pdf failed"}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, errorMessages(&ErrValidation{Messages: []string{"a", "b"}}))
	assert.Equal(t, []string{"skills: wrong type"},
		errorMessages(&schemas.ValidationError{Errors: []schemas.FieldError{{Field: "skills", Message: "wrong type"}}}))
	assert.Equal(t, []string{"boom"}, errorMessages(errors.New("boom")))
}

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "validation error: a; b", (&ErrValidation{Messages: []string{"a", "b"}}).Error())
	assert.Equal(t, "request body exceeds 10 bytes", (&ErrBodyTooLarge{Limit: 10}).Error())
	assert.Contains(t, (&ErrBusy{}).Error(), "busy")
}
