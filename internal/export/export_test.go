package export

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-builder/internal/form"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
)

func TestExportJSON_Empty(t *testing.T) {
	art, err := ExportJSON(types.ResumeData{})
	require.NoError(t, err)

	assert.Equal(t, "cv-data.json", art.Filename)
	assert.Equal(t, "application/json", art.ContentType)
	assert.NotContains(t, string(art.Body), "null")
	assert.Contains(t, string(art.Body), "\n  \"personal\": {")
}

func TestExportJSON_RoundTripThroughFill(t *testing.T) {
	f := form.New()
	d := types.NewResumeData()
	d.Personal.Name = "Ada"
	d.Skills = []string{"Go", "SQL"}
	d.Experience = []types.Experience{{Role: "Engineer", Company: "Acme", Years: "2020", Description: "x"}}
	d.CustomSections = []types.CustomSection{{Title: "Awards", Content: []string{"one", "two"}}}
	d.References = []types.Reference{{Name: "Jane", Phone: "555"}}
	f.Fill(d)

	art, err := ExportJSON(f.Gather())
	require.NoError(t, err)

	g := form.New()
	require.NoError(t, g.FillJSON(art.Body))
	if diff := cmp.Diff(f.Gather(), g.Gather()); diff != "" {
		t.Errorf("export/fill round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestExportJSON_DropsNamelessReferences(t *testing.T) {
	d := types.NewResumeData()
	d.References = []types.Reference{{Name: ""}, {Name: "Bob"}}

	art, err := ExportJSON(d)
	require.NoError(t, err)

	var out types.ResumeData
	require.NoError(t, json.Unmarshal(art.Body, &out))
	require.Len(t, out.References, 1)
	assert.Equal(t, "Bob", out.References[0].Name)
}

func renderedPreview(t *testing.T) string {
	t.Helper()
	d := types.NewResumeData()
	d.Personal.Name = "Ada Lovelace"
	d.Experience = []types.Experience{{Role: "Programmer", Company: "Engine"}}
	html, err := rendering.Render(d, rendering.TemplateD)
	require.NoError(t, err)
	return html
}

func TestPrintDocument(t *testing.T) {
	css, err := rendering.Stylesheet("#112233")
	require.NoError(t, err)

	doc, err := PrintDocument(renderedPreview(t), css)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, "@page { size: A4; margin: 0; }")
	assert.Contains(t, doc, "print-color-adjust: exact")
	assert.Contains(t, doc, "box-shadow: none")
	assert.Contains(t, doc, "--accent: #112233;")
	assert.Contains(t, doc, `onload="window.print(); window.close();"`)

	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, parsed.Find("#print-root .cv-paper.cv-template-d").Length())
	assert.Contains(t, parsed.Find(".cv-name").Text(), "Ada Lovelace")
}

func TestPrintDocument_SanitisesSnapshot(t *testing.T) {
	snapshot := `<div class="cv-paper"><div class="cv-name" onclick="steal()">Eve</div><script>alert(1)</script><img src=x onerror=alert(1)></div>`

	doc, err := PrintDocument(snapshot, "")
	require.NoError(t, err)

	assert.NotContains(t, doc, "<script>alert")
	assert.NotContains(t, doc, "onclick")
	assert.NotContains(t, doc, "onerror")
	assert.Contains(t, doc, `<div class="cv-name">Eve</div>`)
}

func TestPrintDocument_FullDocumentSnapshot(t *testing.T) {
	snapshot := `<html><body><nav>menu</nav><div id="previewArea">` + renderedPreview(t) + `</div></body></html>`

	doc, err := PrintDocument(snapshot, "")
	require.NoError(t, err)
	assert.NotContains(t, doc, "menu")
	assert.Contains(t, doc, "Programmer")
}

func TestPrintDocument_EmptySnapshot(t *testing.T) {
	_, err := PrintDocument("", "")
	var exportErr *ExportError
	assert.ErrorAs(t, err, &exportErr)
}

type fakePrinter struct {
	out  []byte
	err  error
	html string
}

func (p *fakePrinter) PrintToPDF(_ context.Context, html string) ([]byte, error) {
	p.html = html
	return p.out, p.err
}

func TestExportPDF(t *testing.T) {
	printer := &fakePrinter{out: []byte("%PDF-1.7 fake")}

	art, err := ExportPDF(context.Background(), printer, renderedPreview(t), "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", art.ContentType)
	assert.Equal(t, PDFFilename, art.Filename)
	assert.NotContains(t, printer.html, "window.print()", "server-side printing does not auto print")
}

func TestExportPDF_Failures(t *testing.T) {
	t.Run("no printer", func(t *testing.T) {
		_, err := ExportPDF(context.Background(), nil, renderedPreview(t), "")
		var surfaceErr *SurfaceError
		require.ErrorAs(t, err, &surfaceErr)
		assert.ErrorIs(t, err, ErrNoPrinter)
	})

	t.Run("printer error is a surface error", func(t *testing.T) {
		_, err := ExportPDF(context.Background(), &fakePrinter{err: errors.New("popup blocked")}, renderedPreview(t), "")
		var surfaceErr *SurfaceError
		assert.ErrorAs(t, err, &surfaceErr)
	})

	t.Run("not a pdf", func(t *testing.T) {
		_, err := ExportPDF(context.Background(), &fakePrinter{out: []byte("<html>")}, renderedPreview(t), "")
		var exportErr *ExportError
		assert.ErrorAs(t, err, &exportErr)
	})
}

func TestChromePrinter_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	if _, err := exec.LookPath("google-chrome"); err != nil {
		if _, err := exec.LookPath("chromium"); err != nil {
			t.Skip("Skipping browser test: Chrome not installed")
		}
	}

	printer := NewChromePrinter("", 30*time.Second)
	art, err := ExportPDF(context.Background(), printer, renderedPreview(t), "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(art.Body), "%PDF"))
}
