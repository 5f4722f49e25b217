// Package types provides type definitions for the structured CV data shared by the editor,
// the template renderers and the exporters.
package types

import "strings"

// Personal holds the contact header of a CV. Empty strings mean "not provided".
type Personal struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Github   string `json:"github"`
	Linkedin string `json:"linkedin"`
}

// Experience is one job entry.
type Experience struct {
	Role        string `json:"role"`
	Company     string `json:"company"`
	Years       string `json:"years"`
	Description string `json:"description"`
}

// Education is one degree entry.
type Education struct {
	Degree string `json:"degree"`
	School string `json:"school"`
	Years  string `json:"years"`
}

// CustomSection is a free-form titled list of lines.
type CustomSection struct {
	Title   string   `json:"title"`
	Content []string `json:"content"`
}

// Reference is a professional reference. Name is the only required field;
// gathering drops references without one.
type Reference struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Company  string `json:"company"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// HasContact reports whether the reference carries a phone number or an email address.
func (r Reference) HasContact() bool {
	return r.Phone != "" || r.Email != ""
}

// ResumeData is the root aggregate of a CV. Its JSON keys are the persisted-state format
// used by export, import and saved CVs.
type ResumeData struct {
	Personal       Personal        `json:"personal"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         []string        `json:"skills"`
	SoftSkills     []string        `json:"soft_skills"`
	Languages      []string        `json:"languages"`
	CustomSections []CustomSection `json:"custom_sections"`
	References     []Reference     `json:"references" validate:"dive"`
}

// NewResumeData returns an all-empty ResumeData whose slices are non-nil.
func NewResumeData() ResumeData {
	d := ResumeData{}
	Normalize(&d)
	return d
}

// Normalize replaces nil slices with empty ones so that the JSON form always
// carries arrays and templates can range without nil checks.
func Normalize(d *ResumeData) {
	if d == nil {
		return
	}
	if d.Experience == nil {
		d.Experience = []Experience{}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	if d.Skills == nil {
		d.Skills = []string{}
	}
	if d.SoftSkills == nil {
		d.SoftSkills = []string{}
	}
	if d.Languages == nil {
		d.Languages = []string{}
	}
	if d.CustomSections == nil {
		d.CustomSections = []CustomSection{}
	}
	for i := range d.CustomSections {
		if d.CustomSections[i].Content == nil {
			d.CustomSections[i].Content = []string{}
		}
	}
	if d.References == nil {
		d.References = []Reference{}
	}
}

// Clone returns a deep copy of d with normalized slices.
func (d ResumeData) Clone() ResumeData {
	out := ResumeData{
		Personal:   d.Personal,
		Experience: append([]Experience{}, d.Experience...),
		Education:  append([]Education{}, d.Education...),
		Skills:     append([]string{}, d.Skills...),
		SoftSkills: append([]string{}, d.SoftSkills...),
		Languages:  append([]string{}, d.Languages...),
		References: append([]Reference{}, d.References...),
	}
	out.CustomSections = make([]CustomSection, len(d.CustomSections))
	for i, sec := range d.CustomSections {
		out.CustomSections[i] = CustomSection{
			Title:   sec.Title,
			Content: append([]string{}, sec.Content...),
		}
	}
	return out
}

// IsEmpty reports whether d has no personal details and no entries at all.
func (d ResumeData) IsEmpty() bool {
	p := d.Personal
	if p.Name != "" || p.Title != "" || p.Email != "" || p.Phone != "" || p.Github != "" || p.Linkedin != "" {
		return false
	}
	return len(d.Experience) == 0 &&
		len(d.Education) == 0 &&
		len(d.Skills) == 0 &&
		len(d.SoftSkills) == 0 &&
		len(d.Languages) == 0 &&
		len(d.CustomSections) == 0 &&
		len(d.NamedReferences()) == 0
}

// NamedReferences returns the references whose trimmed name is non-empty, in order.
func (d ResumeData) NamedReferences() []Reference {
	out := make([]Reference, 0, len(d.References))
	for _, ref := range d.References {
		if strings.TrimSpace(ref.Name) == "" {
			continue
		}
		out = append(out, ref)
	}
	return out
}
