package export

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// printOverrides fix the page size to A4, keep background colours and drop
// on-screen decoration such as shadows.
const printOverrides = `
@page { size: A4; margin: 0; }
body, html {
  margin: 0 !important;
  padding: 0 !important;
  -webkit-print-color-adjust: exact !important;
  print-color-adjust: exact !important;
  background: white !important;
}
.cv-paper {
  width: 100% !important;
  min-height: 100% !important;
  margin: 0 !important;
  box-sizing: border-box;
  background: white !important;
  box-shadow: none !important;
}
.cv-paper * { visibility: visible !important; box-shadow: none !important; }
`

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
{{.Stylesheet}}
{{.Overrides}}
</style>
</head>
<body{{if .AutoPrint}} onload="window.print(); window.close();"{{end}}>
<div id="print-root">{{.Markup}}</div>
</body>
</html>
`))

type printView struct {
	Title      string
	Stylesheet template.CSS
	Overrides  template.CSS
	Markup     template.HTML
	AutoPrint  bool
}

var (
	snapshotPolicyOnce sync.Once
	snapshotPolicy     *bluemonday.Policy
)

// snapshotSanitizer allows the structural markup the CV layouts produce and nothing executable.
func snapshotSanitizer() *bluemonday.Policy {
	snapshotPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("div", "span", "b", "strong", "i", "em", "ul", "ol", "li", "p", "br", "h1", "h2", "h3", "h4")
		policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
		policy.AllowStyles("color", "text-align", "margin-bottom", "display", "justify-content").Globally()
		snapshotPolicy = policy
	})
	return snapshotPolicy
}

// snapshotFragment returns the CV markup of a snapshot. Full documents are
// reduced to their body; the first .cv-paper element wins when present.
func snapshotFragment(snapshot string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot))
	if err != nil {
		return "", err
	}
	if paper := doc.Find(".cv-paper").First(); paper.Length() > 0 {
		return goquery.OuterHtml(paper)
	}
	return doc.Find("body").Html()
}

// PrintDocument builds the standalone print document for a rendered preview:
// the sanitised snapshot, the active stylesheet and the print overrides. The
// document prints itself on load and closes its window afterwards.
func PrintDocument(snapshot, stylesheet string) (string, error) {
	return buildPrintDocument(snapshot, stylesheet, true)
}

func buildPrintDocument(snapshot, stylesheet string, autoPrint bool) (string, error) {
	fragment, err := snapshotFragment(snapshot)
	if err != nil {
		return "", &ExportError{Message: "failed to read preview snapshot", Cause: err}
	}
	if strings.TrimSpace(fragment) == "" {
		return "", &ExportError{Message: "nothing has been rendered yet"}
	}

	view := printView{
		Title:      "CV - Print",
		Stylesheet: template.CSS(stylesheet),
		Overrides:  template.CSS(printOverrides),
		Markup:     template.HTML(snapshotSanitizer().Sanitize(fragment)),
		AutoPrint:  autoPrint,
	}

	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, view); err != nil {
		return "", &ExportError{Message: "failed to build print document", Cause: err}
	}
	return buf.String(), nil
}
