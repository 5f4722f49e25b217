package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/observability"
	"github.com/jonathan/cv-builder/internal/rendering"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a CV to HTML",
	Long: `Renders a ResumeData JSON file with one of the layouts. With --standalone the
output is a complete print page including the stylesheet; with --all every
layout is written to --out-dir as cv-<id>.html.`,
	RunE: runRender,
}

var (
	renderInput      string
	renderTemplate   string
	renderAccent     string
	renderOutput     string
	renderStandalone bool
	renderAll        bool
	renderOutDir     string
)

func init() {
	renderCmd.Flags().StringVarP(&renderInput, "in", "i", "", "Path to ResumeData JSON file (required)")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", string(rendering.DefaultTemplate), "Template id (a, b, c or d)")
	renderCmd.Flags().StringVar(&renderAccent, "accent", "", "Accent colour for --standalone, e.g. #0ea5e9")
	renderCmd.Flags().StringVarP(&renderOutput, "out", "o", "", "Output file (default stdout)")
	renderCmd.Flags().BoolVar(&renderStandalone, "standalone", false, "Write a complete print page")
	renderCmd.Flags().BoolVar(&renderAll, "all", false, "Render every template into --out-dir")
	renderCmd.Flags().StringVar(&renderOutDir, "out-dir", ".", "Directory for --all")

	_ = renderCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	data, err := readResumeFile(renderInput)
	if err != nil {
		return err
	}
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintResumeSummary(&data)
	}

	renderer, err := rendering.Default()
	if err != nil {
		return err
	}

	if renderAll {
		renders, err := renderer.RenderAll(context.Background(), data)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(renderOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		for _, id := range rendering.TemplateIDs() {
			path := filepath.Join(renderOutDir, fmt.Sprintf("cv-%s.html", id))
			if err := os.WriteFile(path, []byte(renders[id]), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		}
		return nil
	}

	id, err := rendering.ParseTemplateID(renderTemplate)
	if err != nil {
		return err
	}
	html, err := renderer.Render(data, id)
	if err != nil {
		return err
	}

	if renderStandalone {
		css, err := rendering.Stylesheet(renderAccent)
		if err != nil {
			return err
		}
		if html, err = export.PrintDocument(html, css); err != nil {
			return err
		}
	}

	if !strings.HasSuffix(html, "\n") {
		html += "\n"
	}
	return writeOutput(cmd.OutOrStdout(), renderOutput, []byte(html))
}
