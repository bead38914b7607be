package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "negative_points", Message: "is required"},
			{Field: "portfolio_length", Message: "must be an integer"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "negative_points")
	assert.Contains(t, errorMsg, "portfolio_length")
}

func TestValidate_StageSchemas(t *testing.T) {
	tests := []struct {
		name      string
		schema    string
		json      string
		wantError bool
	}{
		{
			name:   "preliminary info complete",
			schema: PreliminaryInfo,
			json: `{"professions":["Software Engineer"],"organizations_worked":["Acme Corp"],
				"designation":["Software Engineer"],"experience":{"Software Engineer":3},"portfolio_length":1}`,
		},
		{
			name:   "preliminary info empty object keeps defaults",
			schema: PreliminaryInfo,
			json:   `{}`,
		},
		{
			name:      "experience must be integer years",
			schema:    PreliminaryInfo,
			json:      `{"experience":{"Engineer":"three"}}`,
			wantError: true,
		},
		{
			name:      "points must be strings",
			schema:    CandidateCritic,
			json:      `{"negative_points":[1,2]}`,
			wantError: true,
		},
		{
			name:   "praise list",
			schema: CandidateFan,
			json:   `{"positive_points":["shipped payments"]}`,
		},
		{
			name:   "resume critique",
			schema: ResumeCritic,
			json:   `{"negative_points_resume":["no metrics"]}`,
		},
		{
			name:   "resume praise",
			schema: ResumeFan,
			json:   `{"positive_points_resume":[]}`,
		},
		{
			name:   "judge scores in range",
			schema: NeutralJudge,
			json: `{"scores_candidate_negative":[-3,-10],"scores_candidate_positive":[10],
				"scores_resume_negative":[0],"scores_resume_positive":[8]}`,
		},
		{
			name:      "judge score above range",
			schema:    NeutralJudge,
			json:      `{"scores_candidate_positive":[11]}`,
			wantError: true,
		},
		{
			name:      "judge score below range",
			schema:    NeutralJudge,
			json:      `{"scores_resume_negative":[-11]}`,
			wantError: true,
		},
		{
			name:      "judge score must be integer",
			schema:    NeutralJudge,
			json:      `{"scores_resume_positive":[7.5]}`,
			wantError: true,
		},
		{
			name:      "top level must be object",
			schema:    CandidateFan,
			json:      `["shipped payments"]`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.schema, tt.json)
			if tt.wantError {
				require.Error(t, err)
				var validationErr *ValidationError
				assert.True(t, errors.As(err, &validationErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(CandidateCritic, `{"negative_points": [`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("final_analyze", `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "final_analyze", loadErr.Path)
	assert.NotNil(t, loadErr.Unwrap())
}
