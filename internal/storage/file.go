package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/jonathan/cv-builder/internal/types"
)

// FileStore keeps one JSON file per saved CV in Dir.
type FileStore struct {
	Dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StoreError{Op: "create directory", Cause: err}
	}
	return &FileStore{Dir: dir}, nil
}

// Save writes data, replacing any previous document with the same name.
func (s *FileStore) Save(ctx context.Context, data types.ResumeData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	filename, data, err := prepare(data)
	if err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", &StoreError{Op: "encode", Cause: err}
	}

	// write then rename so readers never see a partial file
	tmp, err := os.CreateTemp(s.Dir, ".cv-*.tmp")
	if err != nil {
		return "", &StoreError{Op: "write", Cause: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return "", &StoreError{Op: "write", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &StoreError{Op: "write", Cause: err}
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, filename)); err != nil {
		return "", &StoreError{Op: "write", Cause: err}
	}
	return filename, nil
}

// Load reads a saved document.
func (s *FileStore) Load(ctx context.Context, filename string) (types.ResumeData, error) {
	if err := ctx.Err(); err != nil {
		return types.ResumeData{}, err
	}
	if err := CheckFilename(filename); err != nil {
		return types.ResumeData{}, err
	}

	raw, err := os.ReadFile(filepath.Join(s.Dir, filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.ResumeData{}, &NotFoundError{Filename: filename}
		}
		return types.ResumeData{}, &StoreError{Op: "read", Cause: err}
	}
	data, err := types.DecodeResumeData(raw)
	if err != nil {
		return types.ResumeData{}, &StoreError{Op: "decode " + filename, Cause: err}
	}
	return data, nil
}

// List returns the saved filenames in lexical order.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &StoreError{Op: "list", Cause: err}
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || CheckFilename(e.Name()) != nil {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}
