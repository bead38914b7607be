package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRender(t *testing.T) {
	tmpl := Template{
		Name:   "resume_critic",
		System: "You hire for {profession}. The post is {profession}.",
		User:   "RESUME:{resume}\n\n{format_instructions}",
	}

	system, user, err := tmpl.Render(map[string]string{
		"profession":          "Software Engineer",
		"resume":              "Jane Doe {not a slot}",
		"format_instructions": "emit JSON",
		"unused":              "ignored",
	})

	require.NoError(t, err)
	assert.Equal(t, "You hire for Software Engineer. The post is Software Engineer.", system)
	assert.Equal(t, "RESUME:Jane Doe {not a slot}\n\nemit JSON", user)
}

func TestTemplateRender_MissingVariable(t *testing.T) {
	tmpl := Template{Name: "resume_fan", System: "{profession}", User: "{resume}"}

	_, _, err := tmpl.Render(map[string]string{"resume": "text"})

	require.Error(t, err)
	var missingErr *MissingVariableError
	require.True(t, errors.As(err, &missingErr))
	assert.Equal(t, []string{"profession"}, missingErr.Missing)
	assert.Contains(t, err.Error(), "resume_fan")
}

func TestTemplateRender_EmptyValueIsAllowed(t *testing.T) {
	tmpl := Template{Name: "neutral_judge", User: "points: {negative_points_candidate}."}

	_, user, err := tmpl.Render(map[string]string{"negative_points_candidate": ""})

	require.NoError(t, err)
	assert.Equal(t, "points: .", user)
}

func TestLoadTemplate(t *testing.T) {
	tmpl, err := LoadTemplate("neutral_judge")
	require.NoError(t, err)

	assert.Equal(t, "neutral_judge", tmpl.Name)
	assert.Equal(t, []string{
		"profession",
		"positive_points_candidate", "negative_points_candidate",
		"positive_points_resume", "negative_points_resume",
		"format_instructions",
	}, tmpl.Variables())

	_, err = LoadTemplate("final_analyze")
	assert.Error(t, err)
}
