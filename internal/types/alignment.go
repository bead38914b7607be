package types

import "fmt"

// AlignmentViolation records a score list whose length differs from the
// point list it scores. It is reported, never repaired.
type AlignmentViolation struct {
	Points     string `json:"points"`
	Scores     string `json:"scores"`
	PointCount int    `json:"point_count"`
	ScoreCount int    `json:"score_count"`
}

func (v AlignmentViolation) Error() string {
	return fmt.Sprintf("alignment violation: %s has %d points but %s has %d scores",
		v.Points, v.PointCount, v.Scores, v.ScoreCount)
}

// CheckAlignment compares every (points, scores) pair positionally scored by
// the neutral judge and returns one violation per mismatched pair.
func (s *AnalysisState) CheckAlignment() []AlignmentViolation {
	pairs := []struct {
		points, scores string
		np, ns         int
	}{
		{"negative_points", "scores_candidate_negative", len(s.NegativePoints), len(s.ScoresCandidateNegative)},
		{"positive_points", "scores_candidate_positive", len(s.PositivePoints), len(s.ScoresCandidatePositive)},
		{"negative_points_resume", "scores_resume_negative", len(s.NegativePointsResume), len(s.ScoresResumeNegative)},
		{"positive_points_resume", "scores_resume_positive", len(s.PositivePointsResume), len(s.ScoresResumePositive)},
	}

	var violations []AlignmentViolation
	for _, p := range pairs {
		if p.np != p.ns {
			violations = append(violations, AlignmentViolation{
				Points:     p.points,
				Scores:     p.scores,
				PointCount: p.np,
				ScoreCount: p.ns,
			})
		}
	}
	return violations
}
