package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// Metadata is written next to the cleaned text as resume.meta.json.
// Hash lets callers spot a resume that was analyzed before.
type Metadata struct {
	Source    string `json:"source"`
	Format    string `json:"format"`
	Timestamp string `json:"timestamp"` // RFC3339, UTC
	Hash      string `json:"hash"`      // sha256 of the cleaned text
	Chars     int    `json:"chars"`
	Words     int    `json:"words"`
}

// NewMetadata describes the cleaned text read from source
func NewMetadata(content string, source string) *Metadata {
	return &Metadata{
		Source:    filepath.Base(source),
		Format:    FormatOf(source),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
		Chars:     utf8.RuneCountInString(content),
		Words:     len(strings.Fields(content)),
	}
}

func computeHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ToJSON returns the indented JSON form of m
func (m *Metadata) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}
