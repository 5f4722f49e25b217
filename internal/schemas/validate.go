// Package schemas provides JSON Schema validation for persisted CV documents.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/cv-builder/internal/types"
	rootschemas "github.com/jonathan/cv-builder/schemas"
)

// SchemaLoadError represents errors loading or compiling the schema itself,
// or loading the document to validate.
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

var (
	resumeSchemaOnce sync.Once
	resumeSchema     *gojsonschema.Schema
	resumeSchemaErr  error
)

func compiledResumeSchema() (*gojsonschema.Schema, error) {
	resumeSchemaOnce.Do(func() {
		resumeSchema, resumeSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(rootschemas.ResumeSchema))
		if resumeSchemaErr != nil {
			resumeSchemaErr = &SchemaLoadError{
				Path:    rootschemas.ResumeSchemaFile,
				Message: "embedded schema does not compile",
				Cause:   resumeSchemaErr,
			}
		}
	})
	return resumeSchema, resumeSchemaErr
}

// ValidateResume validates a ResumeData JSON document against the embedded schema.
func ValidateResume(document []byte) error {
	schema, err := compiledResumeSchema()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &SchemaLoadError{
			Path:    rootschemas.ResumeSchemaFile,
			Message: "document could not be loaded",
			Cause:   err,
		}
	}
	return resultError(result)
}

// ValidateResumeFile validates a ResumeData JSON file against the embedded schema.
func ValidateResumeFile(jsonPath string) error {
	abs, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("JSON file not found: %s", abs)
		}
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	return ValidateResume(data)
}

// ValidateJSON validates a JSON file against a JSON Schema file on disk.
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}
	jsonAbsPath, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}

	if _, err := os.Stat(schemaAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbsPath)
	}
	if _, err := os.Stat(jsonAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", jsonAbsPath)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewReferenceLoader("file://"+schemaAbsPath),
		gojsonschema.NewReferenceLoader("file://"+jsonAbsPath),
	)
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaAbsPath,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	return resultError(result)
}

// resultError converts schema failures into the same field error list that
// types.ValidateResume produces, so callers report both kinds alike.
func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &types.ValidationError{
		Errors: make([]types.FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		validationErr.Errors = append(validationErr.Errors, types.FieldError{
			Field:   fieldPath(desc.Field()),
			Message: desc.Description(),
		})
	}
	return validationErr
}

// fieldPath rewrites gojsonschema's "references.0.name" as "references[0].name".
func fieldPath(field string) string {
	if field == "" || field == gojsonschema.STRING_CONTEXT_ROOT {
		return "(root)"
	}
	return indexSegment.ReplaceAllString(field, "[$1]")
}

var indexSegment = regexp.MustCompile(`\.(\d+)\b`)
