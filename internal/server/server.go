package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cv-builder/internal/db"
	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/extraction"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/server/middleware"
	"github.com/jonathan/cv-builder/internal/server/ratelimit"
	"github.com/jonathan/cv-builder/internal/storage"
)

// maxUploadBytes caps uploaded documents and imported JSON.
const maxUploadBytes = 10 << 20

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	db          *db.DB
	store       storage.Store
	sessions    *editor.Manager
	renderer    *rendering.Renderer
	extractor   extraction.Extractor
	parser      extraction.Extractor
	printer     export.Printer
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
}

// Config holds server configuration
type Config struct {
	Port            int
	DatabaseURL     string
	StorageDir      string
	ExtractorURL    string
	ChromePath      string
	PrintTimeout    time.Duration
	DefaultTemplate rendering.TemplateID
	SessionTTL      time.Duration
	RateLimit       *ratelimit.Config

	// Optional collaborators, mainly for tests. Nil values are built from the
	// fields above.
	Store     storage.Store
	Extractor extraction.Extractor
	Printer   export.Printer
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	renderer, err := rendering.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	s := &Server{
		renderer: renderer,
		sessions: editor.NewManager(renderer, cfg.DefaultTemplate, cfg.SessionTTL),
		parser:   extraction.LocalExtractor{},
		validate: newValidator(),
	}

	switch {
	case cfg.Store != nil:
		s.store = cfg.Store
	case cfg.DatabaseURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		s.db = database
		s.store = storage.NewDBStore(database)
	default:
		dir := cfg.StorageDir
		if dir == "" {
			dir = "uploads"
		}
		fileStore, err := storage.NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		s.store = fileStore
	}

	switch {
	case cfg.Extractor != nil:
		s.extractor = cfg.Extractor
	case cfg.ExtractorURL != "":
		s.extractor = extraction.NewHTTPExtractor(cfg.ExtractorURL, 0)
	default:
		s.extractor = s.parser
	}

	if cfg.Printer != nil {
		s.printer = cfg.Printer
	} else {
		s.printer = export.NewChromePrinter(cfg.ChromePath, cfg.PrintTimeout)
	}

	rlCfg := cfg.RateLimit
	if rlCfg == nil {
		rlCfg = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(rlCfg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Layout picker
	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("POST /render/gallery", s.handleGallery)

	// Editor sessions
	withSession := middleware.RequireSession(s.sessions)
	session := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, withSession(h))
	}
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	session("GET /sessions/{id}", s.handleGetSession)
	session("DELETE /sessions/{id}", s.handleDeleteSession)
	session("PUT /sessions/{id}/fields/{field}", s.handleSetField)
	session("POST /sessions/{id}/entries/{kind}", s.handleAddEntry)
	session("PUT /sessions/{id}/entries/{key}/{field}", s.handleSetEntryField)
	session("DELETE /sessions/{id}/entries/{key}", s.handleRemoveEntry)
	session("POST /sessions/{id}/tabs/{tab}", s.handleActivateTab)
	session("POST /sessions/{id}/clear", s.handleClear)
	session("PUT /sessions/{id}/template", s.handleSetTemplate)
	session("PUT /sessions/{id}/accent", s.handleSetAccent)
	session("GET /sessions/{id}/preview", s.handlePreview)
	session("GET /sessions/{id}/events", s.handleEvents)
	session("POST /sessions/{id}/import", s.handleImport)
	session("POST /sessions/{id}/upload", s.handleUpload)

	// Exports
	session("GET /sessions/{id}/export.json", s.handleExportJSON)
	session("GET /sessions/{id}/print", s.handlePrint)
	session("GET /sessions/{id}/export.pdf", s.handleExportPDF)
	session("GET /sessions/{id}/stylesheet.css", s.handleStylesheet)

	// Saved CVs and the parsing service
	mux.HandleFunc("POST /api/parse", s.handleParse)
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("GET /api/load", s.handleLoad)
	mux.HandleFunc("GET /api/list", s.handleList)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // event streams stay open
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	janitorCtx, cancelJanitor := context.WithCancel(context.Background())
	defer cancelJanitor()
	go s.sessions.Run(janitorCtx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[SERVER] starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("[SERVER] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// end event streams first so Shutdown does not wait on them
	s.sessions.CloseAll()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.Close()
	log.Println("[SERVER] stopped")
	return nil
}

// Close releases the sessions, the rate limiter and the database pool
func (s *Server) Close() {
	s.sessions.CloseAll()
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects requests over the client's allowance with 429
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging logs each request with its duration
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[SERVER] %s %s %s (%v)", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start).Round(time.Microsecond))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[SERVER] error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, errorBody{Error: message})
}

// failure writes err with the status HTTPStatus picks for it
func (s *Server) failure(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[SERVER] %d: %v", status, err)
	}
	s.jsonResponse(w, status, newErrorBody(err))
}

// decodeJSON reads a JSON request body into v and validates its tags
func (s *Server) decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxUploadBytes)).Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return s.validateRequest(v)
}

// newValidator registers the "accent" tag, which accepts the colours the
// stylesheet accepts.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("accent", func(fl validator.FieldLevel) bool {
		return rendering.ValidAccent(fl.Field().String())
	})
	return v
}

// validateRequest checks the validate tags of a decoded request
func (s *Server) validateRequest(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ErrValidation{Field: verrs[0].Field(), Message: verrs[0].Tag()}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// clientID identifies the caller for rate limiting by remote IP
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds() + 0.999)
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	log.Printf("[SERVER] rate limit exceeded: limit=%d remaining=%d", info.Limit, info.Remaining)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
