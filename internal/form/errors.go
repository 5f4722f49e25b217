// Package form models the CV editor form: scalar inputs, dynamic entry lists and the
// gather/fill synchronisation between them and types.ResumeData.
package form

import "fmt"

// UnknownKindError is returned for an entry list kind the form does not have.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown entry kind: %s", e.Kind)
}

// UnknownFieldError is returned when a scalar field or entry field name is not part of the form.
type UnknownFieldError struct {
	Field string
	Kind  Kind
}

func (e *UnknownFieldError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("unknown %s field: %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("unknown field: %s", e.Field)
}

// EntryNotFoundError is returned when no entry carries the given key.
type EntryNotFoundError struct {
	Key string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("entry not found: %s", e.Key)
}

// FillError is returned when imported data cannot be decoded. The form is left untouched.
type FillError struct {
	Message string
	Cause   error
}

func (e *FillError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fill error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("fill error: %s", e.Message)
}

func (e *FillError) Unwrap() error {
	return e.Cause
}
