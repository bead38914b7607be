package schemas

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

//go:embed stages/*.json
var stageFS embed.FS

// Stage schema names
const (
	PreliminaryInfo = "preliminary_info"
	CandidateCritic = "candidate_critic"
	CandidateFan    = "candidate_fan"
	ResumeCritic    = "resume_critic"
	ResumeFan       = "resume_fan"
	NeutralJudge    = "neutral_judge"
)

// Get returns the raw JSON Schema document for a stage.
func Get(name string) (string, error) {
	data, err := stageFS.ReadFile(path.Join("stages", name+".json"))
	if err != nil {
		return "", &SchemaLoadError{Path: name, Message: "schema not found", Cause: err}
	}
	return string(data), nil
}

const formatInstructionsTemplate = `The output should be formatted as a JSON instance that conforms to the JSON schema below.

As an example, for the schema {"properties": {"foo": {"title": "Foo", "description": "a list of strings", "type": "array", "items": {"type": "string"}}}, "required": ["foo"]}
the object {"foo": ["bar", "baz"]} is a well-formatted instance of the schema. The object {"properties": {"foo": ["bar", "baz"]}} is not well-formatted.

Here is the output schema:
` + "```" + `
%s
` + "```"

// FormatInstructions renders the prompt suffix that tells the model which
// JSON shape to emit for the named stage. The schema is compacted and its
// meta keys are dropped so the model sees only the shape.
func FormatInstructions(name string) (string, error) {
	content, err := Get(name)
	if err != nil {
		return "", err
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return "", &SchemaLoadError{Path: name, Message: "invalid schema JSON", Cause: err}
	}
	delete(doc, "$schema")
	delete(doc, "title")

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode schema %s: %w", name, err)
	}

	return fmt.Sprintf(formatInstructionsTemplate, strings.TrimSpace(buf.String())), nil
}
