package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/jonathan/cv-builder/internal/export"
)

// writeArtifact sends an export as a file download
func writeArtifact(w http.ResponseWriter, art export.Artifact) {
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(art.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Body)
}

// handleExportJSON downloads the session's data as cv-data.json
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	art, err := sess.ExportJSON()
	if err != nil {
		s.failure(w, err)
		return
	}
	writeArtifact(w, art)
}

// handlePrint returns the standalone print page for the current preview
func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	doc, err := sess.PrintDocument()
	if err != nil {
		s.failure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, doc)
}

// handleExportPDF prints the current preview to PDF in a headless browser
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	art, err := sess.ExportPDF(r.Context(), s.printer)
	if err != nil {
		s.failure(w, err)
		return
	}
	writeArtifact(w, art)
}

// handleStylesheet serves the preview stylesheet with the session's accent colour
func (s *Server) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mustSession(w, r)
	if !ok {
		return
	}
	css, err := sess.Stylesheet()
	if err != nil {
		s.failure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = io.WriteString(w, css)
}
