package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/server"
)

var (
	servePort         int
	serveStorageDir   string
	serveExtractorURL string
	serveChromePath   string
	serveTemplate     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor HTTP server",
	Long: `Start an HTTP server that hosts editor sessions with live previews, exports and
the saved-CV endpoints. Saved CVs go to PostgreSQL when DATABASE_URL is set,
otherwise to --storage-dir.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().StringVar(&serveStorageDir, "storage-dir", "", "Directory for saved CVs without a database (default uploads)")
	serveCmd.Flags().StringVar(&serveExtractorURL, "extractor-url", "", "Base URL of a remote document parsing service")
	serveCmd.Flags().StringVar(&serveChromePath, "chrome-path", "", "Browser executable for PDF export")
	serveCmd.Flags().StringVarP(&serveTemplate, "template", "t", "", "Default template for new sessions (a, b, c or d)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	cfg, err := serverConfig(settings)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// serverConfig applies the serve flags over the loaded settings.
func serverConfig(settings config.Config) (server.Config, error) {
	flags := config.Config{
		Port:            servePort,
		StorageDir:      serveStorageDir,
		ExtractorURL:    serveExtractorURL,
		ChromePath:      serveChromePath,
		DefaultTemplate: serveTemplate,
	}
	merged := flags.MergeWithDefaults(settings)
	if merged.Port == 0 {
		merged.Port = 8080
	}
	if err := merged.Validate(); err != nil {
		return server.Config{}, err
	}

	var tmpl rendering.TemplateID
	if merged.DefaultTemplate != "" {
		tmpl, _ = rendering.ParseTemplateID(merged.DefaultTemplate)
	}
	ttl, _ := merged.SessionTTLDuration()
	printTimeout, _ := merged.PrintTimeoutDuration()

	return server.Config{
		Port:            merged.Port,
		DatabaseURL:     merged.DatabaseURL,
		StorageDir:      merged.StorageDir,
		ExtractorURL:    merged.ExtractorURL,
		ChromePath:      merged.ChromePath,
		PrintTimeout:    printTimeout,
		DefaultTemplate: tmpl,
		SessionTTL:      ttl,
	}, nil
}
