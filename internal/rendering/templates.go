package rendering

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateID identifies one of the CV layouts.
type TemplateID string

// Layout ids.
const (
	TemplateA TemplateID = "a"
	TemplateB TemplateID = "b"
	TemplateC TemplateID = "c"
	TemplateD TemplateID = "d"
)

// DefaultTemplate is the layout a new editor session starts with.
const DefaultTemplate = TemplateA

// TemplateInfo describes a layout for the template picker.
type TemplateInfo struct {
	ID          TemplateID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

var templateInfos = []TemplateInfo{
	{ID: TemplateA, Name: "Classic", Description: "Single column with skill pills"},
	{ID: TemplateB, Name: "Sidebar", Description: "Two columns, contact and skills in a left sidebar"},
	{ID: TemplateC, Name: "Minimal", Description: "Minimal header, skills side by side"},
	{ID: TemplateD, Name: "Centered", Description: "Centered header over two columns"},
}

// Templates returns the available layouts in picker order.
func Templates() []TemplateInfo {
	return append([]TemplateInfo(nil), templateInfos...)
}

// TemplateIDs returns the available layout ids in picker order.
func TemplateIDs() []TemplateID {
	ids := make([]TemplateID, 0, len(templateInfos))
	for _, info := range templateInfos {
		ids = append(ids, info.ID)
	}
	return ids
}

// ParseTemplateID accepts "a".."d" in any case.
func ParseTemplateID(s string) (TemplateID, error) {
	id := TemplateID(strings.ToLower(strings.TrimSpace(s)))
	for _, info := range templateInfos {
		if info.ID == id {
			return id, nil
		}
	}
	return "", &TemplateError{Message: "unknown template id " + strings.TrimSpace(s)}
}

var funcs = template.FuncMap{
	"join": strings.Join,
	// joinNonEmpty joins the non-empty values with sep, avoiding dangling separators.
	"joinNonEmpty": func(sep string, values ...string) string {
		parts := make([]string, 0, len(values))
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, sep)
	},
}

// parseTemplates parses every embedded layout and the shared partials.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("cv").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse embedded templates",
			Cause:   err,
		}
	}

	for _, id := range TemplateIDs() {
		if tmpl.Lookup(string(id)) == nil {
			return nil, &TemplateError{Message: "missing layout " + string(id)}
		}
	}
	return tmpl, nil
}
