package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-reviewer/internal/types"
)

func intp(n int) *int { return &n }

func TestPair(t *testing.T) {
	tests := []struct {
		name   string
		points []string
		scores []int
		want   []ScoredPoint
	}{
		{"aligned", []string{"a", "b"}, []int{-3, -5},
			[]ScoredPoint{{"a", intp(-3)}, {"b", intp(-5)}}},
		{"missing score", []string{"a", "b"}, []int{4},
			[]ScoredPoint{{"a", intp(4)}, {"b", nil}}},
		{"surplus score", []string{"a"}, []int{4, 7},
			[]ScoredPoint{{"a", intp(4)}, {"", intp(7)}}},
		{"empty", nil, nil, []ScoredPoint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pair(tt.points, tt.scores))
		})
	}
}

func TestSections(t *testing.T) {
	state := types.NewAnalysisState("resume")
	state.NegativePoints = []string{"no tests"}
	state.ScoresCandidateNegative = []int{-3}
	state.PositivePointsResume = []string{"clear layout", "concise"}
	state.ScoresResumePositive = []int{8, 8}

	sections := Sections(state)
	require.Len(t, sections, 4)
	assert.Equal(t, SetCandidateNegative, sections[0].Set)
	assert.Equal(t, []ScoredPoint{{"no tests", intp(-3)}}, sections[0].Points)
	assert.Empty(t, sections[1].Points)
	assert.Equal(t, SetResumePositive, sections[3].Set)
	assert.Len(t, sections[3].Points, 2)
}
