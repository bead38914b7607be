package types

import (
	"errors"
	"fmt"
)

// PartialKind tags which stage produced a Partial.
type PartialKind int

// Partial kinds, one per pipeline stage, in pipeline order.
const (
	KindPreliminaryInfo PartialKind = iota + 1
	KindCandidateCritique
	KindCandidatePraise
	KindResumeCritique
	KindResumePraise
	KindJudgeScores
)

var kindNames = map[PartialKind]string{
	KindPreliminaryInfo:   "preliminary_info",
	KindCandidateCritique: "candidate_critique",
	KindCandidatePraise:   "candidate_praise",
	KindResumeCritique:    "resume_critique",
	KindResumePraise:      "resume_praise",
	KindJudgeScores:       "judge_scores",
}

func (k PartialKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PartialKind(%d)", int(k))
}

var (
	// ErrUnknownPartial is returned when merging a Partial whose kind is not one of the six stages.
	ErrUnknownPartial = errors.New("unknown partial result kind")
	// ErrEmptyPartial is returned when the payload for the tagged kind is missing.
	ErrEmptyPartial = errors.New("partial result has no payload for its kind")
)

// PreliminaryInfo is the factual profile extracted from the resume.
type PreliminaryInfo struct {
	Professions         []string       `json:"professions"`
	OrganizationsWorked []string       `json:"organizations_worked"`
	Designation         []string       `json:"designation"`
	Experience          map[string]int `json:"experience"`
	PortfolioLength     int            `json:"portfolio_length"`
}

// CandidateCritique holds the negative traits of the candidate.
type CandidateCritique struct {
	NegativePoints []string `json:"negative_points"`
}

// CandidatePraise holds the positive traits of the candidate.
type CandidatePraise struct {
	PositivePoints []string `json:"positive_points"`
}

// ResumeCritique holds the weaknesses of the resume writing.
type ResumeCritique struct {
	NegativePointsResume []string `json:"negative_points_resume"`
}

// ResumePraise holds the strengths of the resume writing.
type ResumePraise struct {
	PositivePointsResume []string `json:"positive_points_resume"`
}

// JudgeScores holds one score in [-10, 10] per point, in point order.
type JudgeScores struct {
	ScoresCandidateNegative []int `json:"scores_candidate_negative"`
	ScoresCandidatePositive []int `json:"scores_candidate_positive"`
	ScoresResumeNegative    []int `json:"scores_resume_negative"`
	ScoresResumePositive    []int `json:"scores_resume_positive"`
}

// Defaults returns the value a decoder should start from so that absent
// fields keep their schema defaults.
func (PreliminaryInfo) Defaults() PreliminaryInfo {
	return PreliminaryInfo{
		Professions:         []string{},
		OrganizationsWorked: []string{},
		Designation:         []string{},
		Experience:          map[string]int{},
		PortfolioLength:     DefaultPortfolioLength,
	}
}

// Defaults returns the empty critique.
func (CandidateCritique) Defaults() CandidateCritique {
	return CandidateCritique{NegativePoints: []string{}}
}

// Defaults returns the empty praise.
func (CandidatePraise) Defaults() CandidatePraise {
	return CandidatePraise{PositivePoints: []string{}}
}

// Defaults returns the empty resume critique.
func (ResumeCritique) Defaults() ResumeCritique {
	return ResumeCritique{NegativePointsResume: []string{}}
}

// Defaults returns the empty resume praise.
func (ResumePraise) Defaults() ResumePraise {
	return ResumePraise{PositivePointsResume: []string{}}
}

// Defaults returns empty score lists.
func (JudgeScores) Defaults() JudgeScores {
	return JudgeScores{
		ScoresCandidateNegative: []int{},
		ScoresCandidatePositive: []int{},
		ScoresResumeNegative:    []int{},
		ScoresResumePositive:    []int{},
	}
}

// Partial is the output of one stage. Kind selects which payload is set;
// the other payload pointers are nil.
type Partial struct {
	Kind              PartialKind        `json:"kind"`
	PreliminaryInfo   *PreliminaryInfo   `json:"preliminary_info,omitempty"`
	CandidateCritique *CandidateCritique `json:"candidate_critique,omitempty"`
	CandidatePraise   *CandidatePraise   `json:"candidate_praise,omitempty"`
	ResumeCritique    *ResumeCritique    `json:"resume_critique,omitempty"`
	ResumePraise      *ResumePraise      `json:"resume_praise,omitempty"`
	JudgeScores       *JudgeScores       `json:"judge_scores,omitempty"`
}

// NewPreliminaryInfoPartial wraps a PreliminaryInfo payload.
func NewPreliminaryInfoPartial(v PreliminaryInfo) Partial {
	return Partial{Kind: KindPreliminaryInfo, PreliminaryInfo: &v}
}

// NewCandidateCritiquePartial wraps a CandidateCritique payload.
func NewCandidateCritiquePartial(v CandidateCritique) Partial {
	return Partial{Kind: KindCandidateCritique, CandidateCritique: &v}
}

// NewCandidatePraisePartial wraps a CandidatePraise payload.
func NewCandidatePraisePartial(v CandidatePraise) Partial {
	return Partial{Kind: KindCandidatePraise, CandidatePraise: &v}
}

// NewResumeCritiquePartial wraps a ResumeCritique payload.
func NewResumeCritiquePartial(v ResumeCritique) Partial {
	return Partial{Kind: KindResumeCritique, ResumeCritique: &v}
}

// NewResumePraisePartial wraps a ResumePraise payload.
func NewResumePraisePartial(v ResumePraise) Partial {
	return Partial{Kind: KindResumePraise, ResumePraise: &v}
}

// NewJudgeScoresPartial wraps a JudgeScores payload.
func NewJudgeScoresPartial(v JudgeScores) Partial {
	return Partial{Kind: KindJudgeScores, JudgeScores: &v}
}

// Payload returns the payload selected by Kind, or nil.
func (p Partial) Payload() any {
	switch p.Kind {
	case KindPreliminaryInfo:
		return p.PreliminaryInfo
	case KindCandidateCritique:
		return p.CandidateCritique
	case KindCandidatePraise:
		return p.CandidatePraise
	case KindResumeCritique:
		return p.ResumeCritique
	case KindResumePraise:
		return p.ResumePraise
	case KindJudgeScores:
		return p.JudgeScores
	}
	return nil
}

// Merge copies exactly the field group of p into the state and leaves every
// other field untouched. The state is not modified when an error is returned.
func (s *AnalysisState) Merge(p Partial) error {
	switch p.Kind {
	case KindPreliminaryInfo:
		v := p.PreliminaryInfo
		if v == nil {
			return fmt.Errorf("%w: %s", ErrEmptyPartial, p.Kind)
		}
		s.Professions = orEmpty(v.Professions)
		s.OrganizationsWorked = orEmpty(v.OrganizationsWorked)
		s.Designation = orEmpty(v.Designation)
		s.Experience = v.Experience
		if s.Experience == nil {
			s.Experience = map[string]int{}
		}
		s.PortfolioLength = v.PortfolioLength
	case KindCandidateCritique:
		if p.CandidateCritique == nil {
			return fmt.Errorf("%w: %s", ErrEmptyPartial, p.Kind)
		}
		s.NegativePoints = orEmpty(p.CandidateCritique.NegativePoints)
	case KindCandidatePraise:
		if p.CandidatePraise == nil {
			return fmt.Errorf("%w: %s", ErrEmptyPartial, p.Kind)
		}
		s.PositivePoints = orEmpty(p.CandidatePraise.PositivePoints)
	case KindResumeCritique:
		if p.ResumeCritique == nil {
			return fmt.Errorf("%w: %s", ErrEmptyPartial, p.Kind)
		}
		s.NegativePointsResume = orEmpty(p.ResumeCritique.NegativePointsResume)
	case KindResumePraise:
		if p.ResumePraise == nil {
			return fmt.Errorf("%w: %s", ErrEmptyPartial, p.Kind)
		}
		s.PositivePointsResume = orEmpty(p.ResumePraise.PositivePointsResume)
	case KindJudgeScores:
		v := p.JudgeScores
		if v == nil {
			return fmt.Errorf("%w: %s", ErrEmptyPartial, p.Kind)
		}
		s.ScoresCandidateNegative = orEmpty(v.ScoresCandidateNegative)
		s.ScoresCandidatePositive = orEmpty(v.ScoresCandidatePositive)
		s.ScoresResumeNegative = orEmpty(v.ScoresResumeNegative)
		s.ScoresResumePositive = orEmpty(v.ScoresResumePositive)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPartial, p.Kind)
	}
	return nil
}
