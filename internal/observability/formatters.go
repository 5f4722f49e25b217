// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to max runes, ending in "..."
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// listLines writes up to limit items, one per line, then a "more" line.
func listLines(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	for _, item := range items[:min(len(items), limit)] {
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
	sb.WriteString("\n")
}

// PrintResumeSummary outputs a human-readable summary of a CV.
func (p *Printer) PrintResumeSummary(data *types.ResumeData) {
	if data == nil {
		return
	}

	var sb strings.Builder
	name := data.Personal.Name
	if name == "" {
		name = "(no name)"
	}
	sb.WriteString(fmt.Sprintf("Name:     %s\n", name))
	if data.Personal.Title != "" {
		sb.WriteString(fmt.Sprintf("Title:    %s\n", data.Personal.Title))
	}
	if data.Personal.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:    %s\n", data.Personal.Email))
	}
	sb.WriteString("\n")

	jobs := make([]string, 0, len(data.Experience))
	for _, e := range data.Experience {
		line := strings.TrimSpace(strings.Join(nonEmpty(e.Role, e.Company), " @ "))
		if e.Years != "" {
			line += fmt.Sprintf(" (%s)", e.Years)
		}
		jobs = append(jobs, line)
	}
	listLines(&sb, "Experience", jobs, maxItemsToShow)

	schools := make([]string, 0, len(data.Education))
	for _, e := range data.Education {
		schools = append(schools, strings.Join(nonEmpty(e.Degree, e.School), ", "))
	}
	listLines(&sb, "Education", schools, 3)

	if len(data.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills:   %s\n", strings.Join(data.Skills, ", ")))
	}
	if len(data.Languages) > 0 {
		sb.WriteString(fmt.Sprintf("Languages: %s\n", strings.Join(data.Languages, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Sections: %d custom, %d references", len(data.CustomSections), len(data.References)))

	p.printBox("CV SUMMARY", sb.String())
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// PrintValidation outputs the invalid fields of a CV, or a success box.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidation(fields []types.FieldError) {
	if len(fields) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ CV IS VALID")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d invalid fields:\n\n", len(fields)))
	for i, f := range fields {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", f.Field))
		sb.WriteString(fmt.Sprintf("  %s\n", f.Message))
		if i < len(fields)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("VALIDATION ERRORS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTemplates outputs the available layouts, marking the default.
func (p *Printer) PrintTemplates(templates []rendering.TemplateInfo) {
	if len(templates) == 0 {
		return
	}

	var sb strings.Builder
	for i, t := range templates {
		marker := " "
		if t.ID == rendering.DefaultTemplate {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %s  %s\n", marker, strings.ToUpper(string(t.ID)), t.Name))
		if t.Description != "" {
			sb.WriteString(fmt.Sprintf("     %s", t.Description))
		}
		if i < len(templates)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("TEMPLATES", strings.TrimSuffix(sb.String(), "\n"))
}
