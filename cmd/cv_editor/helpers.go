package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/types"
)

// loadSettings merges the --config file over the environment. CLI flags are
// applied on top by each command.
func loadSettings() (config.Config, error) {
	env := config.FromEnv()
	if configPath == "" {
		return env, env.Validate()
	}

	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}
	merged := fileCfg.MergeWithDefaults(env)
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	if fileCfg.Verbose {
		verbose = true
	}
	return merged, nil
}

// readResumeFile decodes a ResumeData JSON file.
func readResumeFile(path string) (types.ResumeData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.ResumeData{}, fmt.Errorf("failed to read input file: %w", err)
	}
	return types.DecodeResumeData(raw)
}

// writeOutput writes body to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, body []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(body)
		return err
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
