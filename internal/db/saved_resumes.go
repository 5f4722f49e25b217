package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SavedResume is a stored CV document
type SavedResume struct {
	Filename  string    `json:"filename"`
	Name      string    `json:"name"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveResume inserts or replaces the document stored under filename
func (db *DB) SaveResume(ctx context.Context, filename, name string, data []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO saved_resumes (filename, name, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (filename) DO UPDATE SET name = $2, data = $3, updated_at = NOW()`,
		filename, name, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save resume %s: %w", filename, err)
	}
	return nil
}

// GetResume retrieves a stored document. It returns nil when none exists.
func (db *DB) GetResume(ctx context.Context, filename string) (*SavedResume, error) {
	var r SavedResume
	err := db.pool.QueryRow(ctx,
		`SELECT filename, name, data, created_at, updated_at
		 FROM saved_resumes WHERE filename = $1`,
		filename,
	).Scan(&r.Filename, &r.Name, &r.Data, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume %s: %w", filename, err)
	}
	return &r, nil
}

// ListResumes returns stored documents ordered by filename, without their data
func (db *DB) ListResumes(ctx context.Context) ([]SavedResume, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT filename, name, created_at, updated_at
		 FROM saved_resumes ORDER BY filename`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	resumes := []SavedResume{}
	for rows.Next() {
		var r SavedResume
		if err := rows.Scan(&r.Filename, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return resumes, nil
}

// DeleteResume removes a stored document
func (db *DB) DeleteResume(ctx context.Context, filename string) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM saved_resumes WHERE filename = $1`, filename)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("resume not found: %s", filename)
	}
	return nil
}
