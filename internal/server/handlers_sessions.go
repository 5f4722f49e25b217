package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/form"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/server/middleware"
	"github.com/jonathan/cv-builder/internal/types"
)

// pingInterval keeps event streams alive through idle proxies.
const pingInterval = 25 * time.Second

// CreateSessionRequest is the optional body of POST /sessions
type CreateSessionRequest struct {
	Template string `json:"template,omitempty" validate:"omitempty,oneof=a b c d A B C D"`
}

// SessionResponse describes an editor session
type SessionResponse struct {
	ID          string               `json:"id"`
	TemplateID  rendering.TemplateID `json:"template_id"`
	Accent      string               `json:"accent"`
	RenderCount int                  `json:"render_count"`
	State       form.State           `json:"state"`
	Data        types.ResumeData     `json:"data"`
}

// ValueRequest carries a new value for a field
type ValueRequest struct {
	Value string `json:"value" validate:"max=20000"`
}

// TemplateRequest selects a layout
type TemplateRequest struct {
	Template string `json:"template" validate:"required"`
}

// AccentRequest sets the accent colour
type AccentRequest struct {
	Accent string `json:"accent" validate:"required,accent"`
}

// PreviewResponse is the last rendered preview
type PreviewResponse struct {
	TemplateID  rendering.TemplateID `json:"template_id"`
	RenderCount int                  `json:"render_count"`
	HTML        string               `json:"html"`
}

func sessionResponse(sess *editor.Session) SessionResponse {
	return SessionResponse{
		ID:          sess.ID.String(),
		TemplateID:  sess.TemplateID(),
		Accent:      sess.Accent(),
		RenderCount: sess.RenderCount(),
		State:       sess.State(),
		Data:        sess.Data(),
	}
}

// mustSession returns the session resolved by middleware.RequireSession
func (s *Server) mustSession(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	sess, err := middleware.GetSession(r)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return sess, true
}

// handleCreateSession starts a new editor session
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			s.failure(w, &ErrValidation{Field: "body", Message: err.Error()})
			return
		}
		if err := s.validateRequest(&req); err != nil {
			s.failure(w, err)
			return
		}
	}

	sess, err := s.sessions.Create(rendering.TemplateID(req.Template))
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, sessionResponse(sess))
}

// handleGetSession returns the session's form state and gathered data
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, sessionResponse(sess))
}

// handleDeleteSession closes a session
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Delete(sess.ID); err != nil {
		s.failure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetField updates a scalar field
func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	var req ValueRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.failure(w, err)
		return
	}
	if err := sess.SetField(r.PathValue("field"), req.Value); err != nil {
		s.failure(w, err)
		return
	}
	s.previewResponse(w, sess)
}

// handleAddEntry appends an empty entry to a list
func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	kind, err := form.ParseKind(r.PathValue("kind"))
	if err != nil {
		s.failure(w, err)
		return
	}
	key, err := sess.AddEntry(kind)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]string{"key": key, "kind": string(kind)})
}

// handleSetEntryField updates one field of an entry
func (s *Server) handleSetEntryField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	var req ValueRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.failure(w, err)
		return
	}
	if err := sess.SetEntryField(r.PathValue("key"), r.PathValue("field"), req.Value); err != nil {
		s.failure(w, err)
		return
	}
	s.previewResponse(w, sess)
}

// handleRemoveEntry removes an entry
func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	if err := sess.RemoveEntry(r.PathValue("key")); err != nil {
		s.failure(w, err)
		return
	}
	s.previewResponse(w, sess)
}

// handleActivateTab records that a form tab was opened
func (s *Server) handleActivateTab(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	seeded := sess.ActivateTab(r.PathValue("tab"))
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"seeded":  seeded,
		"entries": sess.State().Entries,
	})
}

// handleClear empties the form
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	sess.Clear()
	s.jsonResponse(w, http.StatusOK, sessionResponse(sess))
}

// handleSetTemplate switches the preview layout
func (s *Server) handleSetTemplate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	var req TemplateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.failure(w, err)
		return
	}
	if err := sess.SetTemplate(rendering.TemplateID(req.Template)); err != nil {
		s.failure(w, err)
		return
	}
	s.previewResponse(w, sess)
}

// handleSetAccent changes the stylesheet accent colour
func (s *Server) handleSetAccent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	var req AccentRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.failure(w, err)
		return
	}
	if err := sess.SetAccent(req.Accent); err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"accent": sess.Accent()})
}

// handlePreview returns the last rendered preview, as JSON or as an HTML fragment
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, sess.Preview())
		return
	}
	s.previewResponse(w, sess)
}

func (s *Server) previewResponse(w http.ResponseWriter, sess *editor.Session) {
	s.jsonResponse(w, http.StatusOK, PreviewResponse{
		TemplateID:  sess.TemplateID(),
		RenderCount: sess.RenderCount(),
		HTML:        sess.Preview(),
	})
}

// handleEvents streams every re-render of the preview as Server-Sent Events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	events, cancel := sess.Watch()
	defer cancel()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// the current preview first, so a new subscriber starts in sync
	if err := sse.WriteRender(editor.Event{
		Seq:        sess.RenderCount(),
		TemplateID: sess.TemplateID(),
		HTML:       sess.Preview(),
	}); err != nil {
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				sse.WriteError("session closed")
				return
			}
			if err := sse.WriteRender(ev); err != nil {
				log.Printf("[SERVER] event stream for %s ended: %v", sess.ID, err)
				return
			}
		case <-ping.C:
			if err := sse.WritePing(); err != nil {
				return
			}
		}
	}
}

// handleImport fills the form from an exported JSON document
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err := sess.Import(raw); err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sessionResponse(sess))
}

// handleUpload sends an uploaded PDF or DOCX to the extractor and fills the form
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	filename, body, err := readUpload(w, r)
	if err != nil {
		s.failure(w, err)
		return
	}
	if err := sess.ApplyExtraction(r.Context(), s.extractor, filename, body); err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sessionResponse(sess))
}

// readUpload returns the multipart "file" part
func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, &ErrValidation{Field: "file", Message: err.Error()}
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, &ErrValidation{Field: "file", Message: "no file uploaded"}
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return "", nil, &ErrValidation{Field: "file", Message: err.Error()}
	}
	return hdr.Filename, body, nil
}
