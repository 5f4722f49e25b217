package export

import (
	"encoding/json"

	"github.com/jonathan/cv-builder/internal/schemas"
	"github.com/jonathan/cv-builder/internal/types"
)

// JSONFilename is the download name of the exported CV document.
const JSONFilename = "cv-data.json"

// Artifact is a downloadable export.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportJSON serialises data as two-space indented JSON. It succeeds for any
// ResumeData, including an all-empty one.
func ExportJSON(data types.ResumeData) (Artifact, error) {
	doc := data.Clone()
	types.Normalize(&doc)
	doc.References = doc.NamedReferences()

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Artifact{}, &ExportError{Message: "failed to encode resume", Cause: err}
	}
	if err := schemas.ValidateResume(body); err != nil {
		return Artifact{}, &ExportError{Message: "exported resume does not match schema", Cause: err}
	}

	return Artifact{
		Filename:    JSONFilename,
		ContentType: "application/json",
		Body:        body,
	}, nil
}
