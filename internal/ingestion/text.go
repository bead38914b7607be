package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	spaceRun      = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRun  = regexp.MustCompile(`\n\n\n+`)
	bulletMarkers = []string{"- ", "* ", "• ", "· ", "▪ ", "● "}
)

// CleanText normalizes extracted resume text while preserving its layout:
// line endings become LF, runs of spaces collapse, leading indentation and
// bullet markers stay, and at most one blank line separates blocks.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := strings.Join(lines, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine trims trailing space and collapses inner runs, keeping indentation
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	// Headings keep no indentation
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := len(line) - len(trimmed)
	if isBulletLine(trimmed) {
		return strings.Repeat(" ", indent) + trimmed
	}
	return strings.Repeat(" ", indent) + spaceRun.ReplaceAllString(trimmed, " ")
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

// Document is extracted and cleaned resume text with its metadata
type Document struct {
	Text     string
	Metadata *Metadata
}

// IngestFromFile extracts the text of a resume file and cleans it
func IngestFromFile(path string) (*Document, error) {
	raw, err := ExtractText(path)
	if err != nil {
		return nil, err
	}
	return newDocument(path, raw)
}

// IngestBytes extracts and cleans an in-memory resume
func IngestBytes(filename string, data []byte) (*Document, error) {
	raw, err := ExtractBytes(filename, data)
	if err != nil {
		return nil, err
	}
	return newDocument(filename, raw)
}

func newDocument(source, raw string) (*Document, error) {
	text := CleanText(raw)
	if text == "" {
		return nil, &ExtractionError{Path: source, Format: FormatOf(source), Cause: ErrEmptyText}
	}
	return &Document{Text: text, Metadata: NewMetadata(text, source)}, nil
}

// WriteOutput writes the cleaned text and metadata to outDir
func WriteOutput(outDir string, doc *Document) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cleanedPath := filepath.Join(outDir, "resume.cleaned.txt")
	if err := os.WriteFile(cleanedPath, []byte(doc.Text), 0644); err != nil {
		return fmt.Errorf("failed to write cleaned text file: %w", err)
	}

	metaPath := filepath.Join(outDir, "resume.meta.json")
	metaJSON, err := doc.Metadata.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}
