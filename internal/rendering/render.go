package rendering

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-builder/internal/types"
)

//go:embed assets/cv.css
var baseStylesheet string

// DefaultAccent is the accent colour used when none is chosen.
const DefaultAccent = "#7c3aed"

var accentPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Renderer executes the parsed layouts. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded layouts.
func NewRenderer() (*Renderer, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

var defaultRenderer = sync.OnceValues(NewRenderer)

// Default returns the process-wide renderer.
func Default() (*Renderer, error) {
	return defaultRenderer()
}

// Render renders data with the given layout using the process-wide renderer.
func Render(data types.ResumeData, id TemplateID) (string, error) {
	r, err := Default()
	if err != nil {
		return "", err
	}
	return r.Render(data, id)
}

// Render renders data with the given layout. The result depends only on data and id;
// data itself is never modified.
func (r *Renderer) Render(data types.ResumeData, id TemplateID) (string, error) {
	if _, err := ParseTemplateID(string(id)); err != nil {
		return "", err
	}

	view := data.Clone()
	types.Normalize(&view)

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, string(id), view); err != nil {
		return "", &RenderError{
			Message: fmt.Sprintf("failed to execute layout %s", id),
			Cause:   err,
		}
	}
	return buf.String(), nil
}

// RenderAll renders data with every layout concurrently, keyed by layout id.
func (r *Renderer) RenderAll(ctx context.Context, data types.ResumeData) (map[TemplateID]string, error) {
	ids := TemplateIDs()
	results := make([]string, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			html, err := r.Render(data, id)
			if err != nil {
				return err
			}
			results[i] = html
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[TemplateID]string, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}

// ValidAccent reports whether s is a #rgb or #rrggbb colour.
func ValidAccent(s string) bool {
	return accentPattern.MatchString(s)
}

// Stylesheet returns the CV stylesheet with the accent colour applied.
// An empty accent selects DefaultAccent.
func Stylesheet(accent string) (string, error) {
	accent = strings.TrimSpace(accent)
	if accent == "" {
		accent = DefaultAccent
	}
	if !ValidAccent(accent) {
		return "", &RenderError{Message: fmt.Sprintf("invalid accent colour %q", accent)}
	}
	return fmt.Sprintf(":root { --accent: %s; }\n%s", accent, baseStylesheet), nil
}
