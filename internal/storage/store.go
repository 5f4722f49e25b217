// Package storage keeps saved CV documents, either as JSON files in a directory
// or as rows in PostgreSQL.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/cv-builder/internal/types"
)

// Store saves and loads CV documents by filename. List returns filenames in
// lexical order for every implementation.
type Store interface {
	Save(ctx context.Context, data types.ResumeData) (string, error)
	Load(ctx context.Context, filename string) (types.ResumeData, error)
	List(ctx context.Context) ([]string, error)
}

// NotFoundError is returned when no document exists under a filename.
type NotFoundError struct {
	Filename string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("saved CV not found: %s", e.Filename)
}

// InvalidNameError is returned for filenames that are not plain saved-CV names.
type InvalidNameError struct {
	Filename string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid saved CV filename: %q", e.Filename)
}

// StoreError wraps an underlying read or write failure.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_\-.]`)
	filenamePattern = regexp.MustCompile(`^cv_[A-Za-z0-9_\-.]+\.json$`)
)

// Filename derives the saved name for data: cv_<name>.json with spaces turned
// into underscores, or cv_unknown.json when there is no name.
func Filename(data types.ResumeData) string {
	name := strings.TrimSpace(data.Personal.Name)
	if name == "" {
		name = "unknown"
	}
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeNameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, ".")
	if name == "" {
		name = "unknown"
	}
	return "cv_" + name + ".json"
}

// CheckFilename accepts only names Filename could have produced.
func CheckFilename(filename string) error {
	if !filenamePattern.MatchString(filename) || strings.Contains(filename, "..") {
		return &InvalidNameError{Filename: filename}
	}
	return nil
}

// prepare validates data and returns its filename and a normalised copy.
// References without a name are dropped, as in every exported document.
func prepare(data types.ResumeData) (string, types.ResumeData, error) {
	data = data.Clone()
	types.Normalize(&data)
	data.References = data.NamedReferences()
	if err := types.ValidateResume(data); err != nil {
		return "", types.ResumeData{}, err
	}
	return Filename(data), data, nil
}
