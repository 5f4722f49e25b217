package form

import (
	"slices"
	"strings"
	"sync"

	"github.com/jonathan/cv-builder/internal/types"
)

// Scalar field names.
const (
	FieldName       = "name"
	FieldTitle      = "title"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldGithub     = "github"
	FieldLinkedin   = "linkedin"
	FieldSkills     = "skills"
	FieldSoftSkills = "softskills"
	FieldLanguages  = "languages"
)

// ScalarFields lists the scalar inputs in form order.
var ScalarFields = []string{
	FieldName, FieldTitle, FieldEmail, FieldPhone, FieldGithub, FieldLinkedin,
	FieldSkills, FieldSoftSkills, FieldLanguages,
}

// TabReferences is the tab that seeds an empty reference entry when opened.
const TabReferences = "references"

// Listener receives the freshly gathered data after every content change.
type Listener func(types.ResumeData)

// State is a copy of the raw form contents, suitable for redrawing an editor UI.
type State struct {
	Fields  map[string]string `json:"fields"`
	Entries map[Kind][]Entry  `json:"entries"`
}

// Form is the single writer of CV data. All mutations go through its methods;
// ResumeData values are only derived from it by Gather.
type Form struct {
	mu        sync.Mutex
	fields    map[string]string
	lists     map[Kind][]*Entry
	listeners map[int]Listener
	nextSub   int
}

// New returns an empty form.
func New() *Form {
	f := &Form{
		fields:    make(map[string]string, len(ScalarFields)),
		lists:     make(map[Kind][]*Entry, len(Kinds)),
		listeners: make(map[int]Listener),
	}
	for _, name := range ScalarFields {
		f.fields[name] = ""
	}
	return f
}

// Subscribe registers fn for change notifications and returns a function that removes it.
func (f *Form) Subscribe(fn Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	f.listeners[id] = fn

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// notifyLocked gathers under the lock, releases it and then calls listeners,
// so listeners may safely call back into the form.
func (f *Form) notifyLocked() {
	data := f.gatherLocked()
	subs := make([]Listener, 0, len(f.listeners))
	ids := make([]int, 0, len(f.listeners))
	for id := range f.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		subs = append(subs, f.listeners[id])
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(data.Clone())
	}
}

// Field returns the raw value of a scalar field.
func (f *Form) Field(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.fields[name]
	if !ok {
		return "", &UnknownFieldError{Field: name}
	}
	return v, nil
}

// SetField updates a scalar input and notifies listeners once.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	if _, ok := f.fields[name]; !ok {
		f.mu.Unlock()
		return &UnknownFieldError{Field: name}
	}
	f.fields[name] = value
	f.notifyLocked()
	return nil
}

// SetEntryField updates one field of an entry and notifies listeners once.
func (f *Form) SetEntryField(key, field, value string) error {
	f.mu.Lock()
	e, _, _ := f.findLocked(key)
	if e == nil {
		f.mu.Unlock()
		return &EntryNotFoundError{Key: key}
	}
	if !e.hasField(field) {
		f.mu.Unlock()
		return &UnknownFieldError{Field: field, Kind: e.Kind}
	}
	e.Fields[field] = value
	f.notifyLocked()
	return nil
}

// AddEntry appends an empty entry to the list of the given kind and returns its key.
// An empty entry changes nothing visible, so no notification is sent.
func (f *Form) AddEntry(k Kind) (string, error) {
	if _, ok := kindSpecs[k]; !ok {
		return "", &UnknownKindError{Kind: string(k)}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	e := newEntry(k, nil)
	f.lists[k] = append(f.lists[k], e)
	return e.Key, nil
}

// RemoveEntry deletes exactly one entry and notifies listeners once.
func (f *Form) RemoveEntry(key string) error {
	f.mu.Lock()
	e, k, idx := f.findLocked(key)
	if e == nil {
		f.mu.Unlock()
		return &EntryNotFoundError{Key: key}
	}
	f.lists[k] = slices.Delete(f.lists[k], idx, idx+1)
	f.notifyLocked()
	return nil
}

func (f *Form) findLocked(key string) (*Entry, Kind, int) {
	for _, k := range Kinds {
		for i, e := range f.lists[k] {
			if e.Key == key {
				return e, k, i
			}
		}
	}
	return nil, "", -1
}

// Entries returns a copy of the entries of one kind, in order.
func (f *Form) Entries(k Kind) []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Entry, 0, len(f.lists[k]))
	for _, e := range f.lists[k] {
		out = append(out, e.clone())
	}
	return out
}

// State returns a copy of every field and entry.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := State{
		Fields:  make(map[string]string, len(f.fields)),
		Entries: make(map[Kind][]Entry, len(Kinds)),
	}
	for k, v := range f.fields {
		st.Fields[k] = v
	}
	for _, k := range Kinds {
		list := make([]Entry, 0, len(f.lists[k]))
		for _, e := range f.lists[k] {
			list = append(list, e.clone())
		}
		st.Entries[k] = list
	}
	return st
}

// ActivateTab records that the user opened a tab. Opening the references tab
// with no reference entries seeds one empty entry. It reports whether an entry was added.
func (f *Form) ActivateTab(tab string) bool {
	if tab != TabReferences {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.lists[KindReference]) > 0 {
		return false
	}
	f.lists[KindReference] = append(f.lists[KindReference], newEntry(KindReference, nil))
	return true
}

// Clear empties the scalar inputs and the experience, education and custom lists.
// Reference entries are kept.
func (f *Form) Clear() {
	f.mu.Lock()
	for name := range f.fields {
		f.fields[name] = ""
	}
	for _, k := range []Kind{KindExperience, KindEducation, KindCustom} {
		f.lists[k] = nil
	}
	f.notifyLocked()
}

// Gather builds a ResumeData snapshot from the current form contents.
func (f *Form) Gather() types.ResumeData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gatherLocked()
}

func (f *Form) gatherLocked() types.ResumeData {
	d := types.ResumeData{
		Personal: types.Personal{
			Name:     f.fields[FieldName],
			Title:    f.fields[FieldTitle],
			Email:    f.fields[FieldEmail],
			Phone:    f.fields[FieldPhone],
			Github:   f.fields[FieldGithub],
			Linkedin: f.fields[FieldLinkedin],
		},
		Experience:     make([]types.Experience, 0, len(f.lists[KindExperience])),
		Education:      make([]types.Education, 0, len(f.lists[KindEducation])),
		Skills:         SplitList(f.fields[FieldSkills]),
		SoftSkills:     SplitList(f.fields[FieldSoftSkills]),
		Languages:      SplitList(f.fields[FieldLanguages]),
		CustomSections: make([]types.CustomSection, 0, len(f.lists[KindCustom])),
		References:     make([]types.Reference, 0, len(f.lists[KindReference])),
	}

	for _, e := range f.lists[KindExperience] {
		d.Experience = append(d.Experience, types.Experience{
			Role:        e.Get("role"),
			Company:     e.Get("company"),
			Years:       e.Get("years"),
			Description: e.Get("description"),
		})
	}
	for _, e := range f.lists[KindEducation] {
		d.Education = append(d.Education, types.Education{
			Degree: e.Get("degree"),
			School: e.Get("school"),
			Years:  e.Get("years"),
		})
	}
	for _, e := range f.lists[KindCustom] {
		d.CustomSections = append(d.CustomSections, types.CustomSection{
			Title:   e.Get("title"),
			Content: SplitLines(e.Get("content")),
		})
	}
	for _, e := range f.lists[KindReference] {
		name := strings.TrimSpace(e.Get("name"))
		if name == "" {
			continue
		}
		d.References = append(d.References, types.Reference{
			Name:     name,
			Position: strings.TrimSpace(e.Get("position")),
			Company:  strings.TrimSpace(e.Get("company")),
			Phone:    strings.TrimSpace(e.Get("phone")),
			Email:    strings.TrimSpace(e.Get("email")),
		})
	}
	return d
}

// Fill replaces the whole form with data and notifies listeners once.
// References without a name are dropped; when data has no references at all
// one empty reference entry is created.
func (f *Form) Fill(data types.ResumeData) {
	types.Normalize(&data)

	f.mu.Lock()
	p := data.Personal
	f.fields[FieldName] = p.Name
	f.fields[FieldTitle] = p.Title
	f.fields[FieldEmail] = p.Email
	f.fields[FieldPhone] = p.Phone
	f.fields[FieldGithub] = p.Github
	f.fields[FieldLinkedin] = p.Linkedin
	f.fields[FieldSkills] = strings.Join(data.Skills, ", ")
	f.fields[FieldSoftSkills] = strings.Join(data.SoftSkills, ", ")
	f.fields[FieldLanguages] = strings.Join(data.Languages, ", ")

	exp := make([]*Entry, 0, len(data.Experience))
	for _, x := range data.Experience {
		exp = append(exp, newEntry(KindExperience, map[string]string{
			"role": x.Role, "company": x.Company, "years": x.Years, "description": x.Description,
		}))
	}
	edu := make([]*Entry, 0, len(data.Education))
	for _, x := range data.Education {
		edu = append(edu, newEntry(KindEducation, map[string]string{
			"degree": x.Degree, "school": x.School, "years": x.Years,
		}))
	}
	custom := make([]*Entry, 0, len(data.CustomSections))
	for _, x := range data.CustomSections {
		custom = append(custom, newEntry(KindCustom, map[string]string{
			"title": x.Title, "content": strings.Join(x.Content, "\n"),
		}))
	}
	refs := make([]*Entry, 0, len(data.References))
	for _, x := range data.References {
		if strings.TrimSpace(x.Name) == "" {
			continue
		}
		refs = append(refs, newEntry(KindReference, map[string]string{
			"name": x.Name, "position": x.Position, "company": x.Company, "phone": x.Phone, "email": x.Email,
		}))
	}
	if len(data.References) == 0 {
		refs = append(refs, newEntry(KindReference, nil))
	}

	f.lists[KindExperience] = exp
	f.lists[KindEducation] = edu
	f.lists[KindCustom] = custom
	f.lists[KindReference] = refs
	f.notifyLocked()
}

// FillJSON decodes a ResumeData-shaped JSON document and fills the form with it.
// On a decode failure the form is not modified.
func (f *Form) FillJSON(raw []byte) error {
	data, err := types.DecodeResumeData(raw)
	if err != nil {
		return &FillError{Message: "cannot import resume data", Cause: err}
	}
	f.Fill(data)
	return nil
}

// SplitList parses a comma-separated input into trimmed, non-empty items.
// Order and duplicates are preserved.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SplitLines parses a multi-line input into its non-blank lines.
func SplitLines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
