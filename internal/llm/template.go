package llm

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-reviewer/internal/prompts"
)

// FormatInstructionsVar is filled from the stage schema by the Caller.
const FormatInstructionsVar = "format_instructions"

// Template is a pair of system and user prompts with named {placeholder}
// slots.
type Template struct {
	Name   string
	System string
	User   string
}

// MissingVariableError is returned when a template slot has no value.
type MissingVariableError struct {
	Template string
	Missing  []string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template %s: missing variables: %s", e.Template, strings.Join(e.Missing, ", "))
}

// LoadTemplate reads the system and user prompts of a stage from the
// embedded prompt file.
func LoadTemplate(stage string) (Template, error) {
	system, user, err := prompts.Stage(stage)
	if err != nil {
		return Template{}, err
	}
	return Template{Name: stage, System: system, User: user}, nil
}

// Variables lists every placeholder the template needs, system first.
func (t Template) Variables() []string {
	names := prompts.Placeholders(t.System)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, n := range prompts.Placeholders(t.User) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

// Render substitutes vars into both prompts in a single pass. Every
// placeholder must have a value; extra vars are ignored.
func (t Template) Render(vars map[string]string) (system, user string, err error) {
	var missing []string
	for _, name := range t.Variables() {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", "", &MissingVariableError{Template: t.Name, Missing: missing}
	}
	return prompts.Format(t.System, vars), prompts.Format(t.User, vars), nil
}
