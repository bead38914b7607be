// Package prompts holds the embedded analysis prompts and the placeholder
// substitution used to render them.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// StagesFile holds the system and user templates of every analysis stage,
// keyed "<stage>.system" and "<stage>.user".
const StagesFile = "stages.json"

// parsed files by name; embedded content never changes
var files sync.Map

var placeholderPattern = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// Get returns the prompt stored under key in the embedded file filename.
func Get(filename, key string) (string, error) {
	prompts, err := load(filename)
	if err != nil {
		return "", err
	}
	prompt, ok := prompts[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// Stage returns the system and user templates of an analysis stage.
func Stage(name string) (system, user string, err error) {
	if system, err = Get(StagesFile, name+".system"); err != nil {
		return "", "", err
	}
	if user, err = Get(StagesFile, name+".user"); err != nil {
		return "", "", err
	}
	return system, user, nil
}

// Format replaces {name} placeholders with values from data in a single
// pass. Substituted values are never rescanned, so braces inside a resume or
// a JSON schema pass through untouched. Unknown placeholders are left as is.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(data)*2)
	for _, key := range keys {
		pairs = append(pairs, "{"+key+"}", data[key])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Placeholders returns the distinct placeholder names in a template, in
// order of first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

func load(filename string) (map[string]string, error) {
	if cached, ok := files.Load(filename); ok {
		return cached.(map[string]string), nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	actual, _ := files.LoadOrStore(filename, prompts)
	return actual.(map[string]string), nil
}
