package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResume(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(d *ResumeData)
		wantFields []string
	}{
		{
			name:   "empty resume is valid",
			modify: func(_ *ResumeData) {},
		},
		{
			name: "valid contact details",
			modify: func(d *ResumeData) {
				d.Personal.Email = "john.doe@example.com"
				d.Personal.Phone = "+1 (555) 123-4567"
				d.References = []Reference{{Name: "Jane", Email: "jane@example.com", Phone: "0712 345 678"}}
			},
		},
		{
			name: "invalid personal email",
			modify: func(d *ResumeData) {
				d.Personal.Email = "not-an-email"
			},
			wantFields: []string{"personal.email"},
		},
		{
			name: "invalid phone and reference email",
			modify: func(d *ResumeData) {
				d.Personal.Phone = "call me"
				d.References = []Reference{{Name: "Jane", Email: "jane at example"}}
			},
			wantFields: []string{"personal.phone", "references[0].email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewResumeData()
			tt.modify(&d)

			err := ValidateResume(d)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, 0, len(verr.Errors))
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
				assert.NotEmpty(t, fe.Message)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}
