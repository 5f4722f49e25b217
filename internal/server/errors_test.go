package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/extraction"
	"github.com/jonathan/cv-builder/internal/form"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/storage"
	"github.com/jonathan/cv-builder/internal/types"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "accent", Message: "hexcolor"}
	assert.Equal(t, "validation error: accent - hexcolor", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"resume validation", &types.ValidationError{Errors: []types.FieldError{{Field: "personal.email", Message: "x"}}}, http.StatusBadRequest},
		{"decode", &types.DecodeError{Message: "bad"}, http.StatusBadRequest},
		{"fill", &form.FillError{Message: "bad", Cause: &types.DecodeError{Message: "bad"}}, http.StatusBadRequest},
		{"unknown kind", &form.UnknownKindError{Kind: "x"}, http.StatusBadRequest},
		{"unknown field", &form.UnknownFieldError{Field: "x"}, http.StatusBadRequest},
		{"entry not found", &form.EntryNotFoundError{Key: "exp-1"}, http.StatusNotFound},
		{"template", &rendering.TemplateError{Message: "unknown"}, http.StatusBadRequest},
		{"accent", &rendering.RenderError{Message: "invalid accent"}, http.StatusBadRequest},
		{"unsupported type", &extraction.UnsupportedTypeError{Filename: "a.txt"}, http.StatusUnsupportedMediaType},
		{"unreadable document", &extraction.TextError{Format: "pdf", Message: "bad"}, http.StatusUnprocessableEntity},
		{"collaborator", &extraction.CollaboratorError{StatusCode: 500, Message: "boom"}, http.StatusBadGateway},
		{"collaborator malformed", &extraction.CollaboratorError{Message: "malformed", Cause: &types.DecodeError{Message: "x"}}, http.StatusBadGateway},
		{"surface", &export.SurfaceError{Message: "no browser"}, http.StatusServiceUnavailable},
		{"in flight", &editor.InFlightError{Operation: "upload"}, http.StatusConflict},
		{"session", &editor.SessionNotFoundError{ID: uuid.New()}, http.StatusNotFound},
		{"saved cv missing", &storage.NotFoundError{Filename: "cv_x.json"}, http.StatusNotFound},
		{"bad filename", &storage.InvalidNameError{Filename: "../x"}, http.StatusBadRequest},
		{"corrupt store", &storage.StoreError{Op: "decode", Cause: &types.DecodeError{Message: "x"}}, http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("saving: %w", &storage.NotFoundError{Filename: "x"}), http.StatusNotFound},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestNewErrorBody_ListsFields(t *testing.T) {
	body := newErrorBody(&types.ValidationError{Errors: []types.FieldError{{Field: "personal.email", Message: "must be a valid email"}}})
	assert.Contains(t, body.Error, "personal.email")
	assert.Len(t, body.Fields, 1)

	assert.Nil(t, newErrorBody(errors.New("x")).Fields)
}
