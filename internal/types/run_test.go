package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAlignment_WellFormed(t *testing.T) {
	s := NewAnalysisState("resume")
	s.NegativePoints = []string{"a", "b"}
	s.ScoresCandidateNegative = []int{-2, -4}
	s.PositivePoints = []string{"c"}
	s.ScoresCandidatePositive = []int{7}

	assert.Empty(t, s.CheckAlignment())
	assert.Equal(t, len(s.NegativePoints), len(s.ScoresCandidateNegative))
	assert.Equal(t, len(s.PositivePoints), len(s.ScoresCandidatePositive))
	assert.Equal(t, len(s.NegativePointsResume), len(s.ScoresResumeNegative))
	assert.Equal(t, len(s.PositivePointsResume), len(s.ScoresResumePositive))
}

func TestCheckAlignment_FlagsMismatch(t *testing.T) {
	s := NewAnalysisState("resume")
	s.PositivePointsResume = []string{"a", "b", "c"}
	s.ScoresResumePositive = []int{5}

	violations := s.CheckAlignment()

	require.Len(t, violations, 1)
	assert.Equal(t, "positive_points_resume", violations[0].Points)
	assert.Equal(t, "scores_resume_positive", violations[0].Scores)
	assert.Equal(t, 3, violations[0].PointCount)
	assert.Equal(t, 1, violations[0].ScoreCount)
	assert.Contains(t, violations[0].Error(), "3 points")
	// reporting must not repair the state
	assert.Len(t, s.ScoresResumePositive, 1)
}

func TestRun_CloneDoesNotAlias(t *testing.T) {
	run := &Run{
		ThreadID: "t1",
		Status:   RunStatusRunning,
		State:    *NewAnalysisState("resume"),
		Steps: []StepRecord{
			{Name: "preliminary_info", Status: StepStatusCompleted, Response: json.RawMessage(`{"professions":[]}`)},
		},
		Summary: &ScoreSummary{CandidatePositive: 500},
	}
	run.State.Professions = []string{"Engineer"}

	clone := run.Clone()
	clone.State.Professions[0] = "Chef"
	clone.Steps[0].Status = StepStatusFailed
	clone.Summary.CandidatePositive = 0

	assert.Equal(t, "Engineer", run.State.Professions[0])
	assert.Equal(t, StepStatusCompleted, run.Steps[0].Status)
	assert.Equal(t, 500, run.Summary.CandidatePositive)
}

func TestRun_CompletedSteps(t *testing.T) {
	run := &Run{Steps: []StepRecord{
		{Name: "preliminary_info", Status: StepStatusCompleted},
		{Name: "candidate_critic", Status: StepStatusFailed},
	}}

	assert.Equal(t, []string{"preliminary_info"}, run.CompletedSteps())
	assert.NotNil(t, run.Step("candidate_critic"))
	assert.Nil(t, run.Step("neutral_judge"))
	assert.False(t, run.Complete())
}

func TestRun_Terminal(t *testing.T) {
	for status, want := range map[string]bool{
		RunStatusPending:   false,
		RunStatusRunning:   false,
		RunStatusCompleted: true,
		RunStatusFailed:    true,
		RunStatusCancelled: true,
	} {
		assert.Equal(t, want, (&Run{Status: status}).Terminal(), status)
	}
	assert.False(t, (*Run)(nil).Terminal())
}

func TestAnalysisState_JSONFieldNames(t *testing.T) {
	s := NewAnalysisState("resume")
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, name := range []string{
		"resume", "professions", "organizations_worked", "designation", "experience",
		"portfolio_length", "negative_points", "positive_points", "negative_points_resume",
		"positive_points_resume", "scores_candidate_negative", "scores_candidate_positive",
		"scores_resume_negative", "scores_resume_positive",
	} {
		assert.Contains(t, fields, name)
	}
}
