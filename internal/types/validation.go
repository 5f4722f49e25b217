package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// phonePattern accepts international and locally formatted numbers such as
// "+1 (555) 123-4567" or "0712 345 678".
var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{5,24}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// resumeValidator returns the shared validator configured with the "phone" rule
// and JSON field names in error paths.
func resumeValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
		})
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate = v
	})
	return validate
}

// FieldError is a single invalid field, addressed by its JSON path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a ResumeData. It never destroys
// user input; callers surface it next to the offending fields.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateResume checks the formats of contact fields. Empty fields are always valid.
func ValidateResume(d ResumeData) error {
	err := resumeValidator().Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   trimRoot(fe.Namespace()),
			Message: messageFor(fe),
		})
	}
	return out
}

func trimRoot(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// DecodeError is returned when a document is not a ResumeData-shaped JSON object.
type DecodeError struct {
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("decode error: %s", e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// DecodeResumeData leniently decodes a ResumeData-shaped JSON object. Unknown keys
// are ignored, missing or null fields become empty values.
func DecodeResumeData(raw []byte) (ResumeData, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ResumeData{}, &DecodeError{Message: "expected a JSON object"}
	}

	var d ResumeData
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return ResumeData{}, &DecodeError{Message: "invalid resume JSON", Cause: err}
	}
	Normalize(&d)
	return d, nil
}
