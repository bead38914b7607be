package scoring

import "github.com/jonathan/resume-reviewer/internal/types"

// ScoredPoint is one reviewer point with the judge's score at the same index.
// Score is nil when the judge returned fewer scores than points; Point is
// empty for surplus scores.
type ScoredPoint struct {
	Point string `json:"point"`
	Score *int   `json:"score,omitempty"`
}

// Section is one of the four point lists paired with its score list.
type Section struct {
	Set    string        `json:"set"`
	Title  string        `json:"title"`
	Points []ScoredPoint `json:"points"`
}

// Pair zips points and scores by position without repairing a length mismatch.
func Pair(points []string, scores []int) []ScoredPoint {
	n := max(len(points), len(scores))
	out := make([]ScoredPoint, n)
	for i := range n {
		if i < len(points) {
			out[i].Point = points[i]
		}
		if i < len(scores) {
			s := scores[i]
			out[i].Score = &s
		}
	}
	return out
}

// Sections returns the four scored point lists in summary order.
func Sections(state *types.AnalysisState) []Section {
	return []Section{
		{SetCandidateNegative, "Candidate weaknesses", Pair(state.NegativePoints, state.ScoresCandidateNegative)},
		{SetCandidatePositive, "Candidate strengths", Pair(state.PositivePoints, state.ScoresCandidatePositive)},
		{SetResumeNegative, "Resume weaknesses", Pair(state.NegativePointsResume, state.ScoresResumeNegative)},
		{SetResumePositive, "Resume strengths", Pair(state.PositivePointsResume, state.ScoresResumePositive)},
	}
}
