package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/observability"
	"github.com/jonathan/cv-builder/internal/schemas"
	"github.com/jonathan/cv-builder/internal/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a CV JSON file",
	Long: `Checks a ResumeData JSON file against the CV schema (or --schema) and the
field rules the editor applies when saving.`,
	RunE: runValidate,
}

var (
	validateJSON   string
	validateSchema string
)

func init() {
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "Path to JSON file (required)")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Path to a JSON Schema file (default: embedded CV schema)")

	_ = validateCmd.MarkFlagRequired("json")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	var err error
	if validateSchema != "" {
		err = schemas.ValidateJSON(validateSchema, validateJSON)
	} else {
		err = schemas.ValidateResumeFile(validateJSON)
	}
	if err != nil {
		return validationFailed(cmd, err)
	}

	// field rules only apply to CV documents
	if validateSchema == "" {
		data, err := readResumeFile(validateJSON)
		if err != nil {
			return err
		}
		if err := types.ValidateResume(data); err != nil {
			return validationFailed(cmd, err)
		}
		if verbose {
			observability.NewPrinter(out).PrintValidation(nil)
		}
	}

	fmt.Fprintln(out, "Validation passed")
	return nil
}

// validationFailed reports err, listing fields when it carries them.
func validationFailed(cmd *cobra.Command, err error) error {
	out := cmd.OutOrStdout()
	var valErr *types.ValidationError
	if errors.As(err, &valErr) {
		observability.NewPrinter(out).PrintValidation(valErr.Errors)
	}
	fmt.Fprintf(out, "Validation failed: %v\n", err)
	return errors.New("validation failed")
}
