package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFileType(t *testing.T) {
	tests := []struct {
		filename string
		want     FileType
		wantErr  bool
	}{
		{"cv.pdf", FileTypePDF, false},
		{"CV.PDF", FileTypePDF, false},
		{"resume.docx", FileTypeDOCX, false},
		{"resume.doc", "", true},
		{"notes.txt", "", true},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := CheckFileType(tt.filename)
			if tt.wantErr {
				var typeErr *UnsupportedTypeError
				assert.ErrorAs(t, err, &typeErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPExtractor_Success(t *testing.T) {
	var gotFile []byte
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ParsePath, r.URL.Path)

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		gotFile, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"personal":{"name":"Ada"},"skills":["Go"],"references":[{"name":"Bob"}]}`))
	}))
	defer srv.Close()

	x := NewHTTPExtractor(srv.URL+"/", time.Second)
	data, err := x.Extract(context.Background(), "cv.pdf", []byte("%PDF-1.4 body"))
	require.NoError(t, err)

	assert.Equal(t, "cv.pdf", gotName)
	assert.Equal(t, "%PDF-1.4 body", string(gotFile))
	assert.Equal(t, "Ada", data.Personal.Name)
	assert.Equal(t, []string{"Go"}, data.Skills)
	assert.NotNil(t, data.Experience)
	require.Len(t, data.References, 1)
}

func TestHTTPExtractor_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"bad request", http.StatusBadRequest, ""},
		{"malformed json", http.StatusOK, `{"personal":`},
		{"not an object", http.StatusOK, `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPExtractor(srv.URL, time.Second).Extract(context.Background(), "cv.docx", []byte("x"))
			var collabErr *CollaboratorError
			require.ErrorAs(t, err, &collabErr)
			assert.Equal(t, tt.status, collabErr.StatusCode)
		})
	}
}

func TestHTTPExtractor_RejectsTypeBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := NewHTTPExtractor(srv.URL, time.Second).Extract(context.Background(), "cv.txt", []byte("x"))
	var typeErr *UnsupportedTypeError
	assert.ErrorAs(t, err, &typeErr)
	assert.Equal(t, int32(0), calls.Load())
}

func TestHTTPExtractor_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPExtractor(url, time.Second).Extract(context.Background(), "cv.pdf", []byte("x"))
	var collabErr *CollaboratorError
	assert.ErrorAs(t, err, &collabErr)
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDocumentText_Docx(t *testing.T) {
	doc := buildDocx(t, `<w:document><w:body>`+
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>R&amp;D Engineer</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	text, err := DocumentText("cv.docx", doc)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nR&D Engineer\n", text)
}

func TestDocumentText_DocxRuns(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "numeric character references",
			body: `<w:p><w:r><w:t>O&#8217;Brien R&amp;D &#x2013; Lead</w:t></w:r></w:p>`,
			want: "O’Brien R&D – Lead\n",
		},
		{
			name: "line break inside a paragraph",
			body: `<w:p><w:r><w:t>O&#8217;Brien R&amp;D</w:t><w:br/><w:t>Line2</w:t></w:r></w:p>`,
			want: "O’Brien R&D\nLine2\n",
		},
		{
			name: "tabs between runs",
			body: `<w:p><w:r><w:t>2019</w:t><w:tab/><w:t>Acme</w:t></w:r></w:p>`,
			want: "2019\tAcme\n",
		},
		{
			name: "properties are not text",
			body: `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t xml:space="preserve">Skills </w:t></w:r></w:p>`,
			want: "Skills \n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := buildDocx(t, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+
				tt.body+`</w:body></w:document>`)
			text, err := DocumentText("cv.docx", doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestDocumentText_DocxMalformed(t *testing.T) {
	_, err := DocumentText("cv.docx", buildDocx(t, `<w:document><w:p><w:t>open</w:p></w:document>`))
	var textErr *TextError
	assert.ErrorAs(t, err, &textErr)
}

func TestLocalExtractor_BreakSeparatedHeader(t *testing.T) {
	doc := buildDocx(t, `<w:document><w:body>`+
		`<w:p><w:r><w:t>Se&#225;n O&#8217;Brien</w:t><w:br/><w:t>Data Engineer</w:t></w:r></w:p>`+
		`<w:p><w:t>Skills</w:t></w:p>`+
		`<w:p><w:t>Go, SQL</w:t></w:p>`+
		`</w:body></w:document>`)

	data, err := LocalExtractor{}.Extract(context.Background(), "cv.docx", doc)
	require.NoError(t, err)
	assert.Equal(t, "Seán O’Brien", data.Personal.Name)
	assert.Equal(t, "Data Engineer", data.Personal.Title)
	assert.Equal(t, []string{"Go", "SQL"}, data.Skills)
}

func TestDocumentText_Errors(t *testing.T) {
	_, err := DocumentText("cv.docx", []byte("not a zip"))
	var textErr *TextError
	assert.ErrorAs(t, err, &textErr)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, zw.Close())
	_, err = DocumentText("cv.docx", buf.Bytes())
	assert.ErrorAs(t, err, &textErr)

	_, err = DocumentText("cv.pdf", []byte("garbage"))
	assert.ErrorAs(t, err, &textErr)
}

func TestLocalExtractor(t *testing.T) {
	doc := buildDocx(t, `<w:document><w:body>`+
		`<w:p><w:t>Jane Doe</w:t></w:p>`+
		`<w:p><w:t>Software Engineer</w:t></w:p>`+
		`<w:p><w:t>Skills</w:t></w:p>`+
		`<w:p><w:t>Go, Rust</w:t></w:p>`+
		`</w:body></w:document>`)

	data, err := LocalExtractor{}.Extract(context.Background(), "cv.docx", doc)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", data.Personal.Name)
	assert.Equal(t, "Software Engineer", data.Personal.Title)
	assert.Equal(t, []string{"Go", "Rust"}, data.Skills)
}

func TestLocalExtractor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LocalExtractor{}.Extract(ctx, "cv.docx", buildDocx(t, "<w:p/>"))
	assert.ErrorIs(t, err, context.Canceled)
}
