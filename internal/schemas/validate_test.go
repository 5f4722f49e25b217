package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-builder/internal/types"
)

const validResume = `{
	"personal": {"name": "Ada", "title": "", "email": "", "phone": "", "github": "", "linkedin": ""},
	"experience": [{"role": "Engineer", "company": "Acme", "years": "2020", "description": ""}],
	"education": [],
	"skills": ["Go"],
	"soft_skills": [],
	"languages": [],
	"custom_sections": [{"title": "Awards", "content": ["Best paper"]}],
	"references": [{"name": "Jane", "position": "", "company": "", "phone": "555", "email": ""}]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateResume_Valid(t *testing.T) {
	assert.NoError(t, ValidateResume([]byte(validResume)))
}

func TestValidateResume_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"missing arrays", `{"personal": {"name": "", "title": "", "email": "", "phone": "", "github": "", "linkedin": ""}}`, "(root)"},
		{"null skills", `{"personal": {"name": "", "title": "", "email": "", "phone": "", "github": "", "linkedin": ""}, "experience": [], "education": [], "skills": null, "soft_skills": [], "languages": [], "custom_sections": [], "references": []}`, "skills"},
		{"nameless reference", `{"personal": {"name": "", "title": "", "email": "", "phone": "", "github": "", "linkedin": ""}, "experience": [], "education": [], "skills": [], "soft_skills": [], "languages": [], "custom_sections": [], "references": [{"name": ""}]}`, "references[0].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResume([]byte(tt.doc))
			var validationErr *types.ValidationError
			require.ErrorAs(t, err, &validationErr)

			fields := make([]string, 0, len(validationErr.Errors))
			for _, fe := range validationErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestValidateResume_MalformedDocument(t *testing.T) {
	err := ValidateResume([]byte(`{"personal":`))
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Error(t, loadErr.Unwrap())
}

func TestValidateResumeFile(t *testing.T) {
	path := writeFile(t, "cv-data.json", validResume)
	assert.NoError(t, ValidateResumeFile(path))

	err := ValidateResumeFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSON_CustomSchema(t *testing.T) {
	schemaPath := writeFile(t, "schema.json", `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`)

	okPath := writeFile(t, "ok.json", `{"name": "x"}`)
	assert.NoError(t, ValidateJSON(schemaPath, okPath))

	badPath := writeFile(t, "bad.json", `{"name": 1}`)
	err := ValidateJSON(schemaPath, badPath)
	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Errors[0].Field)
}

func TestValidateJSON_NonExistentFiles(t *testing.T) {
	err := ValidateJSON("testdata/nonexistent_schema.json", "x.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	schemaPath := writeFile(t, "schema.json", `{"type": "object"}`)
	err = ValidateJSON(schemaPath, "testdata/nonexistent_json.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
