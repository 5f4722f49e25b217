// Package server provides the HTTP API of the CV editor.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/extraction"
	"github.com/jonathan/cv-builder/internal/form"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/storage"
	"github.com/jonathan/cv-builder/internal/types"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		reqErr        *ErrValidation
		validationErr *types.ValidationError
		decodeErr     *types.DecodeError
		fillErr       *form.FillError
		kindErr       *form.UnknownKindError
		fieldErr      *form.UnknownFieldError
		entryErr      *form.EntryNotFoundError
		templateErr   *rendering.TemplateError
		renderErr     *rendering.RenderError
		typeErr       *extraction.UnsupportedTypeError
		textErr       *extraction.TextError
		collabErr     *extraction.CollaboratorError
		surfaceErr    *export.SurfaceError
		sessionErr    *editor.SessionNotFoundError
		notFoundErr   *storage.NotFoundError
		nameErr       *storage.InvalidNameError
		storeErr      *storage.StoreError
	)

	// wrapper types first: their causes may be decode errors
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &collabErr):
		return http.StatusBadGateway
	case errors.As(err, &surfaceErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &storeErr):
		return http.StatusInternalServerError
	case errors.As(err, &reqErr), errors.As(err, &validationErr), errors.As(err, &decodeErr),
		errors.As(err, &fillErr), errors.As(err, &kindErr), errors.As(err, &fieldErr),
		errors.As(err, &templateErr), errors.As(err, &nameErr):
		return http.StatusBadRequest
	case errors.As(err, &renderErr):
		// only accent colours are user input at render time
		return http.StatusBadRequest
	case errors.As(err, &entryErr), errors.As(err, &sessionErr), errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrInFlight):
		return http.StatusConflict
	case errors.As(err, &typeErr):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &textErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON error payload. Validation failures also list fields.
type errorBody struct {
	Error  string             `json:"error"`
	Fields []types.FieldError `json:"fields,omitempty"`
}

func newErrorBody(err error) errorBody {
	body := errorBody{Error: err.Error()}
	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) {
		body.Fields = validationErr.Errors
	}
	return body
}
