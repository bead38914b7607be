package scoring

import (
	"errors"
	"testing"

	"github.com/jonathan/resume-reviewer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		scores   []int
		expected int
	}{
		{name: "uniform positive", scores: []int{5, 5}, expected: 500},
		{name: "uniform negative", scores: []int{-5, -5}, expected: -500},
		{name: "maximum", scores: []int{10, 10, 10}, expected: 1000},
		{name: "minimum", scores: []int{-10}, expected: -1000},
		{name: "neutral", scores: []int{0, 0}, expected: 0},
		{name: "truncates positive toward zero", scores: []int{5, 5, 4}, expected: 466},
		{name: "truncates negative toward zero", scores: []int{-5, -5, -4}, expected: -466},
		{name: "exact tenth stays exact", scores: []int{4, 4, 4, 4, 4, 4, 4, 4, 4, 5}, expected: 410},
		{name: "mixed signs", scores: []int{-3, 6}, expected: 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize("test", tt.scores)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalize_EmptySet(t *testing.T) {
	got, err := Normalize(SetResumePositive, nil)

	require.Error(t, err)
	var emptyErr *EmptyScoreSetError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, SetResumePositive, emptyErr.Set)
	assert.Equal(t, 0, got)

	_, err = Normalize(SetResumePositive, []int{})
	require.Error(t, err)
}

func TestOverallMatch(t *testing.T) {
	assert.InDelta(t, 475.0, OverallMatch(-300, 600, -200, 800), 0.0001)
	assert.InDelta(t, 0.0, OverallMatch(0, 0, 0, 0), 0.0001)
	assert.InDelta(t, 1000.0, OverallMatch(-1000, 1000, -1000, 1000), 0.0001)
	assert.InDelta(t, 0.25, OverallMatch(1, 0, 0, 0), 0.0001)
}

func TestSummarize(t *testing.T) {
	state := types.NewAnalysisState("resume")
	state.ScoresCandidateNegative = []int{-3, -3}
	state.ScoresCandidatePositive = []int{6, 6, 6}
	state.ScoresResumeNegative = []int{-2}
	state.ScoresResumePositive = []int{8, 8}

	summary, err := Summarize(state)

	require.NoError(t, err)
	assert.Equal(t, -300, summary.CandidateNegative)
	assert.Equal(t, 600, summary.CandidatePositive)
	assert.Equal(t, -200, summary.ResumeNegative)
	assert.Equal(t, 800, summary.ResumePositive)
	assert.InDelta(t, 475.0, summary.OverallMatch, 0.0001)
}

func TestSummarize_ReportsFirstEmptySet(t *testing.T) {
	state := types.NewAnalysisState("resume")
	state.ScoresCandidateNegative = []int{-3}
	state.ScoresCandidatePositive = []int{}

	summary, err := Summarize(state)

	assert.Nil(t, summary)
	var emptyErr *EmptyScoreSetError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, SetCandidatePositive, emptyErr.Set)
}

func TestSummarize_NilState(t *testing.T) {
	_, err := Summarize(nil)
	require.Error(t, err)
}
