// Package schemas embeds the JSON Schema documents describing persisted CV data.
package schemas

import _ "embed"

// ResumeSchemaFile is the file name of the ResumeData schema.
const ResumeSchemaFile = "resume.schema.json"

// ResumeSchema is the JSON Schema of an exported or saved ResumeData document.
//
//go:embed resume.schema.json
var ResumeSchema []byte
