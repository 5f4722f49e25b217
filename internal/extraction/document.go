package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FileType is an accepted upload format.
type FileType string

// Accepted upload formats.
const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
)

// CheckFileType accepts .pdf and .docx file names, case-insensitively.
func CheckFileType(filename string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".pdf":
		return FileTypePDF, nil
	case ".docx":
		return FileTypeDOCX, nil
	default:
		return "", &UnsupportedTypeError{Filename: filename}
	}
}

// DocumentText extracts the plain text of an uploaded document.
func DocumentText(filename string, data []byte) (string, error) {
	ft, err := CheckFileType(filename)
	if err != nil {
		return "", err
	}
	if ft == FileTypePDF {
		return pdfText(data)
	}
	return docxText(data)
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &TextError{Format: "pdf", Message: "cannot open document", Cause: err}
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", &TextError{Format: "pdf", Message: "cannot read page text", Cause: err}
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &TextError{Format: "docx", Message: "not a zip archive", Cause: err}
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", &TextError{Format: "docx", Message: "cannot open document.xml", Cause: err}
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", &TextError{Format: "docx", Message: "cannot read document.xml", Cause: err}
		}
		break
	}
	if len(docXML) == 0 {
		return "", &TextError{Format: "docx", Message: "no word/document.xml found"}
	}

	return wordprocessingText(docXML)
}

// wordprocessingText walks document.xml and keeps the run text, turning tabs,
// breaks and paragraph ends into whitespace.
func wordprocessingText(docXML []byte) (string, error) {
	var sb strings.Builder
	dec := xml.NewDecoder(bytes.NewReader(docXML))
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &TextError{Format: "docx", Message: "malformed document.xml", Cause: err}
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}
	return sb.String(), nil
}
