package ingestion

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zipOf builds an in-memory OOXML package from name to content.
func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`

func slideXML(lines ...string) string {
	var sb bytes.Buffer
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody>`)
	for _, l := range lines {
		sb.WriteString(`<a:p><a:r><a:t>` + l + `</a:t></a:r></a:p>`)
	}
	sb.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	return sb.String()
}

func TestFormatOf(t *testing.T) {
	tests := map[string]string{
		"resume.pdf":     FormatPDF,
		"RESUME.PDF":     FormatPDF,
		"cv.docx":        FormatDOCX,
		"deck.pptx":      FormatPPTX,
		"resume.txt":     FormatText,
		"resume.md":      FormatText,
		"no_extension":   FormatText,
		"archive.pdf.gz": FormatText,
	}
	for name, want := range tests {
		assert.Equal(t, want, FormatOf(name), name)
	}
}

func TestExtractBytes_PlainText(t *testing.T) {
	text, err := ExtractBytes("resume.txt", []byte("Jane Doe\nSoftware Engineer"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSoftware Engineer", text)
}

func TestExtractBytes_InvalidUTF8(t *testing.T) {
	_, err := ExtractBytes("resume.txt", []byte{0xff, 0xfe, 0x00, 'J'})

	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, FormatText, extractErr.Format)
	assert.ErrorIs(t, err, ErrNotUTF8)
}

func TestExtractBytes_EmptyIsAnError(t *testing.T) {
	_, err := ExtractBytes("resume.txt", []byte("  \n "))
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestExtractBytes_DOCX(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Software Engineer at </w:t></w:r><w:r><w:t>Acme Corp</w:t></w:r></w:p>
</w:body></w:document>`
	data := zipOf(t, map[string]string{
		"[Content_Types].xml":          contentTypes,
		"word/document.xml":            document,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	})

	text, err := ExtractBytes("jane.docx", data)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe\n")
	assert.Contains(t, text, "Software Engineer at Acme Corp")
}

func TestExtractBytes_PPTXSlideOrder(t *testing.T) {
	data := zipOf(t, map[string]string{
		"[Content_Types].xml":         contentTypes,
		"ppt/slides/slide10.xml":      slideXML("Ten"),
		"ppt/slides/slide2.xml":       slideXML("Two"),
		"ppt/slides/slide1.xml":       slideXML("Jane Doe", "Portfolio"),
		"ppt/slides/_rels/slide1.xml": "<ignored/>",
		"ppt/notesSlides/notes1.xml":  slideXML("Speaker notes"),
	})

	text, err := ExtractBytes("portfolio.pptx", data)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nPortfolio\n\nTwo\n\nTen\n\n", text)
	assert.NotContains(t, text, "Speaker notes")
}

func TestExtractBytes_CorruptArchives(t *testing.T) {
	for _, name := range []string{"broken.docx", "broken.pptx", "broken.pdf"} {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractBytes(name, []byte("definitely not a document"))
			var extractErr *ExtractionError
			require.ErrorAs(t, err, &extractErr)
			assert.Equal(t, name, extractErr.Path)
			assert.Equal(t, FormatOf(name), extractErr.Format)
		})
	}
}

func TestExtractText_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.md")
	require.NoError(t, os.WriteFile(path, []byte("# Jane Doe"), 0644))

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "# Jane Doe", text)
}

func TestXMLText_TabsAndBreaks(t *testing.T) {
	text, err := xmlText(`<w:p xmlns:w="x"><w:r><w:t>A</w:t><w:tab/><w:t>B</w:t><w:br/><w:t>C</w:t></w:r></w:p>`)
	require.NoError(t, err)
	assert.Equal(t, "A\tB\nC\n", text)
}

func TestSlideNumber(t *testing.T) {
	assert.Equal(t, 12, slideNumber("ppt/slides/slide12.xml"))
	assert.Equal(t, 0, slideNumber("ppt/slides/slideX.xml"))
}
