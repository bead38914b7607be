package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Supported formats
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatPPTX = "pptx"
	FormatText = "text"
)

var (
	// ErrEmptyText is the cause when a document yields no text
	ErrEmptyText = errors.New("document contains no extractable text")
	// ErrNotUTF8 is the cause when a plain-text file is not valid UTF-8
	ErrNotUTF8 = errors.New("file is not valid UTF-8 text")
)

// FormatOf maps a filename to the extractor that handles it.
func FormatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".pptx":
		return FormatPPTX
	default:
		return FormatText
	}
}

// ExtractText reads the file at path and returns its text.
func ExtractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &ExtractionError{Path: path, Cause: fmt.Errorf("file not found: %w", err)}
		}
		return "", &ExtractionError{Path: path, Cause: err}
	}
	return ExtractBytes(path, data)
}

// ExtractBytes returns the text of an in-memory document. filename selects
// the format by extension; anything unrecognised is read as UTF-8 text.
func ExtractBytes(filename string, data []byte) (string, error) {
	format := FormatOf(filename)

	var text string
	var err error
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatPPTX:
		text, err = extractPPTX(data)
	default:
		if !utf8.Valid(data) {
			err = ErrNotUTF8
		}
		text = string(data)
	}
	if err != nil {
		return "", &ExtractionError{Path: filename, Format: format, Cause: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Path: filename, Format: format, Cause: ErrEmptyText}
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	// GetContent returns the document XML
	return xmlText(doc.Editable().GetContent())
}

// extractPPTX concatenates the text runs of every slide in slide order.
func extractPPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pptx: %w", err)
	}

	var slides []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var sb strings.Builder
	for _, f := range slides {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		text, err := xmlText(string(content))
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.Name, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// slideNumber parses N from ppt/slides/slideN.xml
func slideNumber(name string) int {
	n := 0
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// xmlText collects the character data of <t> runs (w:t in Word, a:t in
// DrawingML) and breaks lines at paragraph ends.
func xmlText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
