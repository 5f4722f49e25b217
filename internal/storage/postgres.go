package storage

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/jonathan/cv-builder/internal/db"
	"github.com/jonathan/cv-builder/internal/types"
)

// resumeRepo is the part of *db.DB the store needs.
type resumeRepo interface {
	SaveResume(ctx context.Context, filename, name string, data []byte) error
	GetResume(ctx context.Context, filename string) (*db.SavedResume, error)
	ListResumes(ctx context.Context) ([]db.SavedResume, error)
}

// DBStore keeps saved CVs in the saved_resumes table.
type DBStore struct {
	repo resumeRepo
}

// NewDBStore wraps a connected database.
func NewDBStore(database *db.DB) *DBStore {
	return &DBStore{repo: database}
}

// Save upserts data under its derived filename.
func (s *DBStore) Save(ctx context.Context, data types.ResumeData) (string, error) {
	filename, data, err := prepare(data)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(data)
	if err != nil {
		return "", &StoreError{Op: "encode", Cause: err}
	}
	if err := s.repo.SaveResume(ctx, filename, data.Personal.Name, body); err != nil {
		return "", &StoreError{Op: "save", Cause: err}
	}
	return filename, nil
}

// Load reads a saved document.
func (s *DBStore) Load(ctx context.Context, filename string) (types.ResumeData, error) {
	if err := CheckFilename(filename); err != nil {
		return types.ResumeData{}, err
	}
	row, err := s.repo.GetResume(ctx, filename)
	if err != nil {
		return types.ResumeData{}, &StoreError{Op: "load", Cause: err}
	}
	if row == nil {
		return types.ResumeData{}, &NotFoundError{Filename: filename}
	}
	data, err := types.DecodeResumeData(row.Data)
	if err != nil {
		return types.ResumeData{}, &StoreError{Op: "decode " + filename, Cause: err}
	}
	return data, nil
}

// List returns the saved filenames in lexical order.
func (s *DBStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.repo.ListResumes(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list", Cause: err}
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Filename)
	}
	slices.Sort(names)
	return names, nil
}
