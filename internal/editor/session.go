package editor

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/extraction"
	"github.com/jonathan/cv-builder/internal/form"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
)

// Event is published to watchers after every preview render.
type Event struct {
	Seq        int                  `json:"seq"`
	TemplateID rendering.TemplateID `json:"template_id"`
	HTML       string               `json:"html"`
}

// watchBuffer is how many unread events a slow watcher may hold before older
// ones are dropped.
const watchBuffer = 4

// Session is one editor: a form, the layout it is previewed with and the last
// rendered preview.
type Session struct {
	ID uuid.UUID

	form     *form.Form
	renderer *rendering.Renderer

	// mu serialises operations. The form listener runs inside them and only
	// takes viewMu.
	mu sync.Mutex

	viewMu     sync.RWMutex
	templateID rendering.TemplateID
	accent     string
	preview    string
	renderErr  error
	renders    int

	uploading atomic.Bool
	printing  atomic.Bool
	lastUsed  atomic.Int64

	watchMu  sync.Mutex
	watchers map[int]chan Event
	nextSub  int
	closed   bool

	unsubscribe func()
}

// NewSession creates a session previewed with the given layout and renders the
// empty form once.
func NewSession(renderer *rendering.Renderer, id rendering.TemplateID) (*Session, error) {
	if renderer == nil {
		var err error
		if renderer, err = rendering.Default(); err != nil {
			return nil, err
		}
	}
	if _, err := rendering.ParseTemplateID(string(id)); err != nil {
		return nil, err
	}

	s := &Session{
		ID:         uuid.New(),
		form:       form.New(),
		renderer:   renderer,
		templateID: id,
		accent:     rendering.DefaultAccent,
		watchers:   make(map[int]chan Event),
	}
	s.unsubscribe = s.form.Subscribe(s.onChange)
	s.touch()

	s.viewMu.Lock()
	s.renderLocked(s.form.Gather())
	err := s.renderErr
	s.viewMu.Unlock()
	if err != nil {
		s.unsubscribe()
		return nil, err
	}
	return s, nil
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// LastUsed reports when the session last handled an operation.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *Session) onChange(data types.ResumeData) {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.renderLocked(data)
}

// renderLocked re-renders the preview. Callers hold viewMu.
func (s *Session) renderLocked(data types.ResumeData) {
	html, err := s.renderer.Render(data, s.templateID)
	if err != nil {
		log.Printf("[EDITOR] session %s: render failed: %v", s.ID, err)
		s.renderErr = err
		return
	}
	s.preview = html
	s.renderErr = nil
	s.renders++
	s.publish(Event{Seq: s.renders, TemplateID: s.templateID, HTML: html})
}

func (s *Session) publish(ev Event) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- ev:
		default:
			// drop the oldest so the newest preview always arrives
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Watch returns a channel receiving every subsequent render. The cancel func
// must be called once the caller stops reading.
func (s *Session) Watch() (<-chan Event, func()) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	ch := make(chan Event, watchBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.watchMu.Lock()
			defer s.watchMu.Unlock()
			if c, ok := s.watchers[id]; ok {
				delete(s.watchers, id)
				close(c)
			}
		})
	}
}

// Close detaches the session from its form and ends all watches.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribe()

	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
}

// do runs fn as one serialised operation.
func (s *Session) do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return fn()
}

// SetField updates a scalar form field.
func (s *Session) SetField(name, value string) error {
	return s.do(func() error { return s.form.SetField(name, value) })
}

// SetEntryField updates one field of a list entry.
func (s *Session) SetEntryField(key, field, value string) error {
	return s.do(func() error { return s.form.SetEntryField(key, field, value) })
}

// AddEntry appends an empty entry and returns its key.
func (s *Session) AddEntry(kind form.Kind) (string, error) {
	var key string
	err := s.do(func() error {
		var err error
		key, err = s.form.AddEntry(kind)
		return err
	})
	return key, err
}

// RemoveEntry removes the entry with the given key.
func (s *Session) RemoveEntry(key string) error {
	return s.do(func() error { return s.form.RemoveEntry(key) })
}

// ActivateTab records that a form tab was opened; it reports whether an entry
// was seeded.
func (s *Session) ActivateTab(tab string) bool {
	var seeded bool
	_ = s.do(func() error {
		seeded = s.form.ActivateTab(tab)
		return nil
	})
	return seeded
}

// Clear empties the form except for references.
func (s *Session) Clear() {
	_ = s.do(func() error {
		s.form.Clear()
		return nil
	})
}

// Fill replaces the form contents with data.
func (s *Session) Fill(data types.ResumeData) {
	_ = s.do(func() error {
		s.form.Fill(data)
		return nil
	})
}

// Import fills the form from an exported JSON document. The form is untouched
// when the document cannot be decoded.
func (s *Session) Import(raw []byte) error {
	return s.do(func() error { return s.form.FillJSON(raw) })
}

// State returns the editable form contents.
func (s *Session) State() form.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.State()
}

// Data gathers the current ResumeData.
func (s *Session) Data() types.ResumeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Gather()
}

// TemplateID returns the layout the preview is rendered with.
func (s *Session) TemplateID() rendering.TemplateID {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.templateID
}

// SetTemplate switches the preview layout and re-renders from a fresh gather.
func (s *Session) SetTemplate(id rendering.TemplateID) error {
	id, err := rendering.ParseTemplateID(string(id))
	if err != nil {
		return err
	}
	return s.do(func() error {
		data := s.form.Gather()
		s.viewMu.Lock()
		defer s.viewMu.Unlock()
		s.templateID = id
		s.renderLocked(data)
		return s.renderErr
	})
}

// Accent returns the preview accent colour.
func (s *Session) Accent() string {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.accent
}

// SetAccent changes the accent colour used by the stylesheet.
func (s *Session) SetAccent(accent string) error {
	if _, err := rendering.Stylesheet(accent); err != nil {
		return err
	}
	s.touch()
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.accent = accent
	return nil
}

// Stylesheet returns the preview stylesheet with the session's accent.
func (s *Session) Stylesheet() (string, error) {
	return rendering.Stylesheet(s.Accent())
}

// Preview returns the last rendered markup.
func (s *Session) Preview() string {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.preview
}

// RenderCount returns how many times the preview has been rendered.
func (s *Session) RenderCount() int {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.renders
}

// ExportJSON serialises the current form contents.
func (s *Session) ExportJSON() (export.Artifact, error) {
	return export.ExportJSON(s.Data())
}

// PrintDocument builds the print page from the current preview.
func (s *Session) PrintDocument() (string, error) {
	css, err := s.Stylesheet()
	if err != nil {
		return "", err
	}
	s.touch()
	return export.PrintDocument(s.Preview(), css)
}

// ExportPDF prints the current preview to PDF. Only one print runs at a time.
func (s *Session) ExportPDF(ctx context.Context, printer export.Printer) (export.Artifact, error) {
	if err := s.BeginPrint(); err != nil {
		return export.Artifact{}, err
	}
	defer s.EndPrint()

	css, err := s.Stylesheet()
	if err != nil {
		return export.Artifact{}, err
	}
	s.touch()
	return export.ExportPDF(ctx, printer, s.Preview(), css)
}

// BeginUpload marks an upload as in flight.
func (s *Session) BeginUpload() error {
	if !s.uploading.CompareAndSwap(false, true) {
		return &InFlightError{Operation: "upload"}
	}
	return nil
}

// EndUpload clears the upload flag.
func (s *Session) EndUpload() {
	s.uploading.Store(false)
}

// BeginPrint marks a print as in flight.
func (s *Session) BeginPrint() error {
	if !s.printing.CompareAndSwap(false, true) {
		return &InFlightError{Operation: "print"}
	}
	return nil
}

// EndPrint clears the print flag.
func (s *Session) EndPrint() {
	s.printing.Store(false)
}

// ApplyExtraction sends an uploaded document to the extractor and fills the
// form with the result. Other operations keep running while the extractor
// works; on failure the form is left as it was.
func (s *Session) ApplyExtraction(ctx context.Context, x extraction.Extractor, filename string, body []byte) error {
	if _, err := extraction.CheckFileType(filename); err != nil {
		return err
	}
	if err := s.BeginUpload(); err != nil {
		return err
	}
	defer s.EndUpload()
	s.touch()

	start := time.Now()
	data, err := x.Extract(ctx, filename, body)
	if err != nil {
		log.Printf("[EDITOR] session %s: extraction of %s failed: %v", s.ID, filename, err)
		return err
	}
	log.Printf("[EDITOR] session %s: extracted %s in %s", s.ID, filename, time.Since(start).Round(time.Millisecond))

	s.Fill(data)
	return nil
}
