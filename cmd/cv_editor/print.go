package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/rendering"
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print a CV to PDF",
	Long:  "Renders a ResumeData JSON file and prints it to an A4 PDF in a headless browser.",
	RunE:  runPrint,
}

var (
	printInput      string
	printTemplate   string
	printAccent     string
	printOutput     string
	printChromePath string
	printTimeout    time.Duration
)

func init() {
	printCmd.Flags().StringVarP(&printInput, "in", "i", "", "Path to ResumeData JSON file (required)")
	printCmd.Flags().StringVarP(&printTemplate, "template", "t", string(rendering.DefaultTemplate), "Template id (a, b, c or d)")
	printCmd.Flags().StringVar(&printAccent, "accent", "", "Accent colour, e.g. #0ea5e9")
	printCmd.Flags().StringVarP(&printOutput, "out", "o", export.PDFFilename, "Output PDF file")
	printCmd.Flags().StringVar(&printChromePath, "chrome-path", "", "Browser executable (default: CHROME_PATH or auto-detect)")
	printCmd.Flags().DurationVar(&printTimeout, "timeout", 0, "Print timeout (default 60s)")

	_ = printCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(printCmd)
}

func runPrint(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	chromePath := printChromePath
	if chromePath == "" {
		chromePath = settings.ChromePath
	}
	timeout := printTimeout
	if timeout == 0 {
		timeout, _ = settings.PrintTimeoutDuration()
	}

	return printResume(cmd, export.NewChromePrinter(chromePath, timeout))
}

// printResume renders the input and writes the PDF made by printer.
func printResume(cmd *cobra.Command, printer export.Printer) error {
	data, err := readResumeFile(printInput)
	if err != nil {
		return err
	}
	id, err := rendering.ParseTemplateID(printTemplate)
	if err != nil {
		return err
	}
	html, err := rendering.Render(data, id)
	if err != nil {
		return err
	}
	css, err := rendering.Stylesheet(printAccent)
	if err != nil {
		return err
	}

	art, err := export.ExportPDF(context.Background(), printer, html, css)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), printOutput, art.Body); err != nil {
		return err
	}
	if printOutput != "" && printOutput != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", printOutput, len(art.Body))
	}
	return nil
}
