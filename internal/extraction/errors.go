// Package extraction turns uploaded PDF and DOCX resumes into best-effort
// ResumeData, either through a remote parsing service or locally.
package extraction

import "fmt"

// UnsupportedTypeError is returned for uploads that are neither PDF nor DOCX.
// It is raised before any network call is made.
type UnsupportedTypeError struct {
	Filename string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s (only .pdf and .docx are accepted)", e.Filename)
}

// CollaboratorError represents a failed or malformed response from the parsing service.
type CollaboratorError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *CollaboratorError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("parse service error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("parse service error: %s", msg)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Cause
}

// TextError represents a failure to read text out of a document.
type TextError struct {
	Format  string
	Message string
	Cause   error
}

func (e *TextError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s text error: %s: %v", e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s text error: %s", e.Format, e.Message)
}

func (e *TextError) Unwrap() error {
	return e.Cause
}
