// Package middleware provides HTTP middleware that resolves editor sessions from
// the request path.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/cv-builder/internal/editor"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// sessionKey is the context key for the resolved editor session.
const sessionKey ContextKey = "session"

// SessionLookup finds a live session by id.
type SessionLookup interface {
	Get(id uuid.UUID) (*editor.Session, error)
}

// RequireSession resolves the {id} path value to a session and stores it in the
// request context. Malformed ids get 400 and unknown ones 404.
func RequireSession(lookup SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(r.PathValue("id"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid session id")
				return
			}

			s, err := lookup.Get(id)
			if err != nil {
				var notFound *editor.SessionNotFoundError
				if errors.As(err, &notFound) {
					writeError(w, http.StatusNotFound, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the session stored by RequireSession.
func GetSession(r *http.Request) (*editor.Session, error) {
	s, ok := r.Context().Value(sessionKey).(*editor.Session)
	if !ok || s == nil {
		return nil, fmt.Errorf("session not found in request context")
	}
	return s, nil
}

// WithSession returns a copy of ctx carrying s, for handler tests.
func WithSession(ctx context.Context, s *editor.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
