package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/extraction"
	"github.com/jonathan/cv-builder/internal/observability"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract CV data from a PDF or DOCX",
	Long: `Extracts ResumeData from an existing PDF or DOCX. Uses the remote parsing
service when --extractor-url (or CV_EXTRACTOR_URL) is set, otherwise the
built-in best-effort text heuristics.`,
	RunE: runParse,
}

var (
	parseFile         string
	parseOutput       string
	parseExtractorURL string
)

func init() {
	parseCmd.Flags().StringVarP(&parseFile, "file", "f", "", "Path to PDF or DOCX file (required)")
	parseCmd.Flags().StringVarP(&parseOutput, "out", "o", "", "Output JSON file (default stdout)")
	parseCmd.Flags().StringVar(&parseExtractorURL, "extractor-url", "", "Base URL of a remote document parsing service")

	_ = parseCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	url := parseExtractorURL
	if url == "" {
		url = settings.ExtractorURL
	}

	var x extraction.Extractor = extraction.LocalExtractor{}
	if url != "" {
		x = extraction.NewHTTPExtractor(url, 0)
	}

	body, err := os.ReadFile(parseFile)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	data, err := x.Extract(context.Background(), filepath.Base(parseFile), body)
	if err != nil {
		return err
	}
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintResumeSummary(&data)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), parseOutput, append(out, '\n'))
}
