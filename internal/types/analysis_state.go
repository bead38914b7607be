// Package types provides type definitions for structured data used throughout the resume-reviewer system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// DefaultPortfolioLength is the page count assumed when the resume does not state one.
const DefaultPortfolioLength = 1

// AnalysisState is the single record threaded through every pipeline stage.
// Each field group is written by exactly one stage; Resume is set at creation.
type AnalysisState struct {
	Resume string `json:"resume"`

	// Preliminary info
	Professions         []string       `json:"professions"`
	OrganizationsWorked []string       `json:"organizations_worked"`
	Designation         []string       `json:"designation"`
	Experience          map[string]int `json:"experience"`
	PortfolioLength     int            `json:"portfolio_length"`

	// Candidate critic / fan
	NegativePoints []string `json:"negative_points"`
	PositivePoints []string `json:"positive_points"`

	// Resume-writing critic / fan
	NegativePointsResume []string `json:"negative_points_resume"`
	PositivePointsResume []string `json:"positive_points_resume"`

	// Neutral judge, positionally aligned with the point lists above
	ScoresCandidateNegative []int `json:"scores_candidate_negative"`
	ScoresCandidatePositive []int `json:"scores_candidate_positive"`
	ScoresResumeNegative    []int `json:"scores_resume_negative"`
	ScoresResumePositive    []int `json:"scores_resume_positive"`
}

// NewAnalysisState creates a state holding only the resume text; every other
// field carries its schema default.
func NewAnalysisState(resume string) *AnalysisState {
	return &AnalysisState{
		Resume:                  resume,
		Professions:             []string{},
		OrganizationsWorked:     []string{},
		Designation:             []string{},
		Experience:              map[string]int{},
		PortfolioLength:         DefaultPortfolioLength,
		NegativePoints:          []string{},
		PositivePoints:          []string{},
		NegativePointsResume:    []string{},
		PositivePointsResume:    []string{},
		ScoresCandidateNegative: []int{},
		ScoresCandidatePositive: []int{},
		ScoresResumeNegative:    []int{},
		ScoresResumePositive:    []int{},
	}
}

// Clone returns a deep copy of the state.
func (s *AnalysisState) Clone() *AnalysisState {
	if s == nil {
		return nil
	}
	out := *s
	out.Professions = cloneStrings(s.Professions)
	out.OrganizationsWorked = cloneStrings(s.OrganizationsWorked)
	out.Designation = cloneStrings(s.Designation)
	out.NegativePoints = cloneStrings(s.NegativePoints)
	out.PositivePoints = cloneStrings(s.PositivePoints)
	out.NegativePointsResume = cloneStrings(s.NegativePointsResume)
	out.PositivePointsResume = cloneStrings(s.PositivePointsResume)
	out.ScoresCandidateNegative = cloneInts(s.ScoresCandidateNegative)
	out.ScoresCandidatePositive = cloneInts(s.ScoresCandidatePositive)
	out.ScoresResumeNegative = cloneInts(s.ScoresResumeNegative)
	out.ScoresResumePositive = cloneInts(s.ScoresResumePositive)
	if s.Experience != nil {
		out.Experience = make(map[string]int, len(s.Experience))
		for k, v := range s.Experience {
			out.Experience[k] = v
		}
	}
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	return append(make([]int, 0, len(in)), in...)
}

// orEmpty keeps JSON output as [] instead of null for absent lists.
func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
