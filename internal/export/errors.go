// Package export turns CV data and rendered previews into downloadable artifacts:
// the cv-data.json document, a standalone print document and a PDF.
package export

import "fmt"

// SurfaceError means the print surface could not be opened or driven, for example
// because no browser is available. It is recoverable; callers report it and carry on.
type SurfaceError struct {
	Message string
	Cause   error
}

func (e *SurfaceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("print surface error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("print surface error: %s", e.Message)
}

func (e *SurfaceError) Unwrap() error {
	return e.Cause
}

// ExportError represents a failure to serialise or assemble an artifact.
type ExportError struct {
	Message string
	Cause   error
}

func (e *ExportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("export error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("export error: %s", e.Message)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}
