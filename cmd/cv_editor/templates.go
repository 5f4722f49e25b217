package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/observability"
	"github.com/jonathan/cv-builder/internal/rendering"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the CV layouts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		observability.NewPrinter(cmd.OutOrStdout()).PrintTemplates(rendering.Templates())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
