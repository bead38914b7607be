// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to,
// or talk before and after the document.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			// If first line looks like a language identifier (no spaces, short), skip it
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		if doc := extractJSONValue(text); doc != "" {
			return doc
		}
		return text
	}

	// Preamble: start at the first object or array opener
	if idx := strings.IndexAny(text, "{["); idx >= 0 {
		if doc := extractJSONValue(text[idx:]); doc != "" {
			return doc
		}
	}

	return text
}

func extractJSONValue(text string) string {
	if strings.HasPrefix(text, "{") {
		return extractJSONObject(text)
	}
	return extractJSONArray(text)
}

// extractJSONObject returns the balanced {...} prefix of text, or "".
func extractJSONObject(text string) string {
	return extractBalanced(text, '{', '}')
}

// extractJSONArray returns the balanced [...] prefix of text, or "".
func extractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

// extractBalanced scans from an opening delimiter to its match, skipping
// delimiters that appear inside JSON strings.
func extractBalanced(text string, open, closing byte) string {
	if len(text) == 0 || text[0] != open {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
