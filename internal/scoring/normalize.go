// Package scoring aggregates the neutral judge's per-point scores into display figures.
package scoring

import (
	"fmt"

	"github.com/jonathan/resume-reviewer/internal/types"
)

// Score set names, in the order the summary reports them.
const (
	SetCandidateNegative = "candidate_negative"
	SetCandidatePositive = "candidate_positive"
	SetResumeNegative    = "resume_negative"
	SetResumePositive    = "resume_positive"
)

// DisplayScale converts a mean on the [-10, 10] scale to the gauge range.
const DisplayScale = 100

// EmptyScoreSetError is returned when a score set has no scores to average.
// Zero means neutral, so an empty set is never reported as zero.
type EmptyScoreSetError struct {
	Set string
}

func (e *EmptyScoreSetError) Error() string {
	return fmt.Sprintf("score set %s is empty: mean is undefined", e.Set)
}

// Normalize returns mean(scores)*100 truncated toward zero. The arithmetic is
// done on integers, so boundary means such as 4.1 are not rounded down by
// floating point error.
func Normalize(set string, scores []int) (int, error) {
	if len(scores) == 0 {
		return 0, &EmptyScoreSetError{Set: set}
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	// Go integer division truncates toward zero
	return sum * DisplayScale / len(scores), nil
}

// OverallMatch folds the four display figures into one match figure. Negative
// aggregates count by magnitude.
func OverallMatch(candidateNegative, candidatePositive, resumeNegative, resumePositive int) float64 {
	total := abs(candidateNegative) + candidatePositive + abs(resumeNegative) + resumePositive
	return float64(total) / 4
}

// Summarize normalizes the four score sets of a finished analysis.
func Summarize(state *types.AnalysisState) (*types.ScoreSummary, error) {
	if state == nil {
		return nil, fmt.Errorf("state is nil")
	}

	summary := &types.ScoreSummary{}
	sets := []struct {
		name   string
		scores []int
		dst    *int
	}{
		{SetCandidateNegative, state.ScoresCandidateNegative, &summary.CandidateNegative},
		{SetCandidatePositive, state.ScoresCandidatePositive, &summary.CandidatePositive},
		{SetResumeNegative, state.ScoresResumeNegative, &summary.ResumeNegative},
		{SetResumePositive, state.ScoresResumePositive, &summary.ResumePositive},
	}

	for _, set := range sets {
		v, err := Normalize(set.name, set.scores)
		if err != nil {
			return nil, err
		}
		*set.dst = v
	}

	summary.OverallMatch = OverallMatch(summary.CandidateNegative, summary.CandidatePositive,
		summary.ResumeNegative, summary.ResumePositive)
	return summary, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
