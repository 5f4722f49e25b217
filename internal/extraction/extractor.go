package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/cv-builder/internal/types"
)

// DefaultTimeout bounds a single call to the parsing service.
const DefaultTimeout = 60 * time.Second

// ParsePath is the parsing service endpoint relative to its base URL.
const ParsePath = "/api/parse"

// maxResponseBytes caps how much of a parse response is read.
const maxResponseBytes = 4 << 20

// Extractor turns an uploaded document into ResumeData.
type Extractor interface {
	Extract(ctx context.Context, filename string, body []byte) (types.ResumeData, error)
}

// HTTPExtractor posts documents to a remote parsing service as multipart form
// data under the field "file".
type HTTPExtractor struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPExtractor creates an extractor for the service at baseURL.
func NewHTTPExtractor(baseURL string, timeout time.Duration) *HTTPExtractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPExtractor{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Extract uploads the document and decodes the service's JSON answer.
func (x *HTTPExtractor) Extract(ctx context.Context, filename string, body []byte) (types.ResumeData, error) {
	if _, err := CheckFileType(filename); err != nil {
		return types.ResumeData{}, err
	}

	endpoint, err := url.JoinPath(x.BaseURL, ParsePath)
	if err != nil {
		return types.ResumeData{}, &CollaboratorError{Message: "invalid service URL", Cause: err}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return types.ResumeData{}, &CollaboratorError{Message: "failed to build request", Cause: err}
	}
	if _, err := part.Write(body); err != nil {
		return types.ResumeData{}, &CollaboratorError{Message: "failed to build request", Cause: err}
	}
	if err := mw.Close(); err != nil {
		return types.ResumeData{}, &CollaboratorError{Message: "failed to build request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return types.ResumeData{}, &CollaboratorError{Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	client := x.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return types.ResumeData{}, &CollaboratorError{Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return types.ResumeData{}, &CollaboratorError{StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}
	log.Printf("[EXTRACT] %s -> %d (%d bytes, %s)", filename, resp.StatusCode, len(raw), time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.ResumeData{}, &CollaboratorError{
			StatusCode: resp.StatusCode,
			Message:    serviceMessage(raw),
		}
	}

	data, err := types.DecodeResumeData(raw)
	if err != nil {
		return types.ResumeData{}, &CollaboratorError{StatusCode: resp.StatusCode, Message: "malformed response", Cause: err}
	}
	return data, nil
}

// serviceMessage pulls a short description out of an error response body.
func serviceMessage(raw []byte) string {
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "request rejected"
	}
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}

// LocalExtractor reads document text in-process and applies the text heuristics.
type LocalExtractor struct{}

// Extract implements Extractor.
func (LocalExtractor) Extract(ctx context.Context, filename string, body []byte) (data types.ResumeData, err error) {
	if _, err := CheckFileType(filename); err != nil {
		return types.ResumeData{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.ResumeData{}, err
	}

	// the PDF reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			data = types.ResumeData{}
			err = &TextError{Format: "document", Message: fmt.Sprintf("unreadable document: %v", r)}
		}
	}()

	text, err := DocumentText(filename, body)
	if err != nil {
		return types.ResumeData{}, err
	}
	data = FromText(text)
	log.Printf("[EXTRACT] %s parsed locally: %d experience, %d education, %d skills",
		filename, len(data.Experience), len(data.Education), len(data.Skills))
	return data, nil
}
