package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/types"
)

// executeCommand runs the CLI in-process with fresh flag values.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeResume(t *testing.T, mutate func(*types.ResumeData)) string {
	t.Helper()
	d := types.NewResumeData()
	d.Personal.Name = "Ada Lovelace"
	d.Personal.Email = "ada@example.com"
	d.Skills = []string{"Go", "SQL"}
	d.Experience = []types.Experience{{Role: "Engineer", Company: "Engines Ltd", Years: "1842 - 1843"}}
	if mutate != nil {
		mutate(&d)
	}
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cv.json")
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func TestTemplatesCommand(t *testing.T) {
	out, err := executeCommand(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "TEMPLATES")
	for _, id := range []string{"A", "B", "C", "D"} {
		assert.Contains(t, out, id)
	}
}

func TestRenderCommand(t *testing.T) {
	in := writeResume(t, nil)

	t.Run("fragment", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "cv.html")
		_, err := executeCommand(t, "render", "--in", in, "--template", "B", "--out", outFile)
		require.NoError(t, err)

		html, err := os.ReadFile(outFile)
		require.NoError(t, err)
		assert.Contains(t, string(html), "cv-template-b")
		assert.Contains(t, string(html), "Ada Lovelace")
		assert.NotContains(t, string(html), "<!DOCTYPE")
	})

	t.Run("standalone to stdout", func(t *testing.T) {
		out, err := executeCommand(t, "render", "-i", in, "--standalone", "--accent", "#0ea5e9")
		require.NoError(t, err)
		assert.Contains(t, out, "--accent: #0ea5e9;")
		assert.Contains(t, out, "@page { size: A4; margin: 0; }")
	})

	t.Run("all templates", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "gallery")
		out, err := executeCommand(t, "render", "-i", in, "--all", "--out-dir", dir)
		require.NoError(t, err)
		for _, id := range []string{"a", "b", "c", "d"} {
			assert.FileExists(t, filepath.Join(dir, "cv-"+id+".html"))
		}
		assert.Equal(t, 4, strings.Count(out, "Wrote "))
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := executeCommand(t, "render", "-i", in, "-t", "q")
		assert.Error(t, err)
	})

	t.Run("missing input flag", func(t *testing.T) {
		_, err := executeCommand(t, "render")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		out, err := executeCommand(t, "validate", "--json", writeResume(t, nil))
		require.NoError(t, err)
		assert.Contains(t, out, "Validation passed")
	})

	t.Run("invalid email", func(t *testing.T) {
		path := writeResume(t, func(d *types.ResumeData) { d.Personal.Email = "ada-at-example" })
		out, err := executeCommand(t, "validate", "--json", path)
		assert.Error(t, err)
		assert.Contains(t, out, "Validation failed")
	})

	t.Run("wrong shape", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"skills": "Go"}`), 0644))
		out, err := executeCommand(t, "validate", "--json", path)
		assert.Error(t, err)
		assert.Contains(t, out, "Validation failed")
		assert.Contains(t, out, "VALIDATION ERRORS")
		assert.Contains(t, out, "skills")
	})

	t.Run("custom schema", func(t *testing.T) {
		schema := filepath.Join(t.TempDir(), "schema.json")
		require.NoError(t, os.WriteFile(schema, []byte(`{"type":"object","required":["personal"]}`), 0644))
		out, err := executeCommand(t, "validate", "--json", writeResume(t, nil), "--schema", schema)
		require.NoError(t, err)
		assert.Contains(t, out, "Validation passed")
	})
}

func buildDocx(t *testing.T, paragraphs ...string) string {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0"?><w:document><w:body>` + body.String() + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "cv.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestParseCommand(t *testing.T) {
	t.Setenv("CV_EXTRACTOR_URL", "")
	doc := buildDocx(t, "Grace Hopper", "grace@example.com", "Skills", "COBOL, Compilers")

	out, err := executeCommand(t, "parse", "--file", doc)
	require.NoError(t, err)

	var data types.ResumeData
	require.NoError(t, json.Unmarshal([]byte(out), &data), out)
	assert.Equal(t, "Grace Hopper", data.Personal.Name)
	assert.Equal(t, "grace@example.com", data.Personal.Email)
	assert.Equal(t, []string{"COBOL", "Compilers"}, data.Skills)
}

func TestParseCommand_UnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0644))

	_, err := executeCommand(t, "parse", "--file", path)
	assert.Error(t, err)
}

type fakePrinter struct{ html string }

func (p *fakePrinter) PrintToPDF(_ context.Context, html string) ([]byte, error) {
	p.html = html
	return []byte("%PDF-1.7 fake"), nil
}

func TestPrintResume(t *testing.T) {
	resetFlags(rootCmd)
	printInput = writeResume(t, nil)
	printTemplate = "c"
	printAccent = "#123456"
	printOutput = filepath.Join(t.TempDir(), "cv.pdf")

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	printer := &fakePrinter{}

	require.NoError(t, printResume(cmd, printer))

	pdf, err := os.ReadFile(printOutput)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Contains(t, printer.html, "cv-template-c")
	assert.Contains(t, printer.html, "--accent: #123456;")
	assert.Contains(t, out.String(), "Wrote ")
}

func TestServerConfig(t *testing.T) {
	resetFlags(rootCmd)
	t.Setenv("PORT", "9000")
	t.Setenv("CV_STORAGE_DIR", "from-env")
	t.Setenv("CV_SESSION_TTL", "45m")
	t.Setenv("CV_DEFAULT_TEMPLATE", "")

	configPath = filepath.Join(t.TempDir(), "cv.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("storage_dir: from-file\ndefault_template: d\n"), 0644))
	t.Cleanup(func() { configPath = "" })

	settings, err := loadSettings()
	require.NoError(t, err)

	serveStorageDir = ""
	servePort = 0
	serveTemplate = "B"
	cfg, err := serverConfig(settings)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "from-file", cfg.StorageDir)
	assert.Equal(t, "b", string(cfg.DefaultTemplate))
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)
}

func TestServerConfig_InvalidTemplate(t *testing.T) {
	resetFlags(rootCmd)
	serveTemplate = "x"
	_, err := serverConfig(config.Config{})
	assert.Error(t, err)
}
