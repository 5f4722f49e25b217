package form

import (
	"fmt"
	"sync/atomic"
)

// Kind names one of the dynamic entry lists.
type Kind string

// Entry list kinds.
const (
	KindExperience Kind = "experience"
	KindEducation  Kind = "education"
	KindCustom     Kind = "custom"
	KindReference  Kind = "reference"
)

// Kinds lists the entry kinds in form order.
var Kinds = []Kind{KindExperience, KindEducation, KindCustom, KindReference}

type kindSpec struct {
	prefix string
	fields []string
}

var kindSpecs = map[Kind]kindSpec{
	KindExperience: {prefix: "exp", fields: []string{"role", "company", "years", "description"}},
	KindEducation:  {prefix: "edu", fields: []string{"degree", "school", "years"}},
	KindCustom:     {prefix: "custom", fields: []string{"title", "content"}},
	KindReference:  {prefix: "ref", fields: []string{"name", "position", "company", "phone", "email"}},
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindSpecs[k]; !ok {
		return "", &UnknownKindError{Kind: s}
	}
	return k, nil
}

// FieldsOf returns the editable field names of an entry kind.
func FieldsOf(k Kind) []string {
	return append([]string(nil), kindSpecs[k].fields...)
}

// entrySeq is shared by every form in the process so keys never collide,
// including entries created within the same instant.
var entrySeq atomic.Uint64

func nextKey(k Kind) string {
	return fmt.Sprintf("%s-%d", kindSpecs[k].prefix, entrySeq.Add(1))
}

// Entry is one item of a dynamic list. Key only addresses the entry for
// removal and edits; it carries no business meaning.
type Entry struct {
	Key    string            `json:"key"`
	Kind   Kind              `json:"kind"`
	Fields map[string]string `json:"fields"`
}

func newEntry(k Kind, values map[string]string) *Entry {
	e := &Entry{Key: nextKey(k), Kind: k, Fields: make(map[string]string, len(kindSpecs[k].fields))}
	for _, f := range kindSpecs[k].fields {
		e.Fields[f] = values[f]
	}
	return e
}

// Get returns the raw value of a field.
func (e *Entry) Get(field string) string {
	return e.Fields[field]
}

func (e *Entry) clone() Entry {
	out := Entry{Key: e.Key, Kind: e.Kind, Fields: make(map[string]string, len(e.Fields))}
	for k, v := range e.Fields {
		out.Fields[k] = v
	}
	return out
}

func (e *Entry) hasField(field string) bool {
	_, ok := e.Fields[field]
	return ok
}
