package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/rendering"
)

type testLookup struct {
	sessions map[uuid.UUID]*editor.Session
	err      error
}

func (l *testLookup) Get(id uuid.UUID) (*editor.Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	s, ok := l.sessions[id]
	if !ok {
		return nil, &editor.SessionNotFoundError{ID: id}
	}
	return s, nil
}

func newMux(lookup SessionLookup, seen **editor.Session) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /sessions/{id}", RequireSession(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := GetSession(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		*seen = s
		w.WriteHeader(http.StatusOK)
	})))
	return mux
}

func TestRequireSession(t *testing.T) {
	s, err := editor.NewSession(nil, rendering.TemplateA)
	require.NoError(t, err)
	defer s.Close()
	lookup := &testLookup{sessions: map[uuid.UUID]*editor.Session{s.ID: s}}

	tests := []struct {
		name       string
		lookup     *testLookup
		path       string
		wantStatus int
	}{
		{"known session", lookup, "/sessions/" + s.ID.String(), http.StatusOK},
		{"unknown session", lookup, "/sessions/" + uuid.NewString(), http.StatusNotFound},
		{"malformed id", lookup, "/sessions/not-a-uuid", http.StatusBadRequest},
		{"lookup failure", &testLookup{err: errors.New("boom")}, "/sessions/" + s.ID.String(), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *editor.Session
			rr := httptest.NewRecorder()
			newMux(tt.lookup, &seen).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Same(t, s, seen)
				return
			}
			assert.Nil(t, seen)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetSession_Missing(t *testing.T) {
	_, err := GetSession(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, err)
}

func TestWithSession(t *testing.T) {
	s, err := editor.NewSession(nil, rendering.TemplateB)
	require.NoError(t, err)
	defer s.Close()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithSession(r.Context(), s))
	got, err := GetSession(r)
	require.NoError(t, err)
	assert.Same(t, s, got)
}
