package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFiles_ValidJSON(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(".", ResumeSchemaFile))
	require.NoError(t, err, "should be able to read schema file")

	var v map[string]any
	require.NoError(t, json.Unmarshal(data, &v), "schema file should be valid JSON")
	assert.Equal(t, "ResumeData", v["title"])
	assert.Equal(t, data, ResumeSchema, "embedded schema should match the file on disk")
}

func TestResumeSchema_RequiredKeys(t *testing.T) {
	var v struct {
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal(ResumeSchema, &v))
	assert.ElementsMatch(t, []string{
		"personal", "experience", "education", "skills",
		"soft_skills", "languages", "custom_sections", "references",
	}, v.Required)
}
