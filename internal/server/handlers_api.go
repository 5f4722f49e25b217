package server

import (
	"io"
	"net/http"

	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
)

// SaveResponse is returned by POST /api/save
type SaveResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
}

// ListResponse is returned by GET /api/list
type ListResponse struct {
	Files []string `json:"files"`
}

// handleListTemplates returns the layouts for the picker
func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"templates": rendering.Templates(),
		"default":   rendering.DefaultTemplate,
	})
}

// handleGallery renders a posted ResumeData with every layout
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	data, err := readResumeBody(w, r)
	if err != nil {
		s.failure(w, err)
		return
	}
	renders, err := s.renderer.RenderAll(r.Context(), data)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"renders": renders})
}

// handleParse is the document parsing service: multipart "file" in, ResumeData out
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	filename, body, err := readUpload(w, r)
	if err != nil {
		s.failure(w, err)
		return
	}
	data, err := s.parser.Extract(r.Context(), filename, body)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, data)
}

// handleSave stores a posted ResumeData under its derived filename
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	data, err := readResumeBody(w, r)
	if err != nil {
		s.failure(w, err)
		return
	}
	filename, err := s.store.Save(r.Context(), data)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, SaveResponse{Status: "ok", Filename: filename})
}

// handleLoad returns a saved ResumeData by ?filename=
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		s.failure(w, &ErrValidation{Field: "filename", Message: "required"})
		return
	}
	data, err := s.store.Load(r.Context(), filename)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, data)
}

// handleList returns the saved filenames
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	files, err := s.store.List(r.Context())
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ListResponse{Files: files})
}

// readResumeBody decodes a ResumeData request body
func readResumeBody(w http.ResponseWriter, r *http.Request) (types.ResumeData, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		return types.ResumeData{}, &ErrValidation{Field: "body", Message: err.Error()}
	}
	return types.DecodeResumeData(raw)
}
