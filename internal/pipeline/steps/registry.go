// Package steps provides step definitions and dependency validation
// for the resume analysis pipeline.
package steps

import (
	"fmt"

	"github.com/jonathan/resume-reviewer/internal/schemas"
	"github.com/jonathan/resume-reviewer/internal/types"
)

// Step names in execution order
const (
	PreliminaryInfo = "preliminary_info"
	CandidateCritic = "candidate_critic"
	CandidateFan    = "candidate_fan"
	ResumeCritic    = "resume_critic"
	ResumeFan       = "resume_fan"
	NeutralJudge    = "neutral_judge"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Title        string
	Category     string
	Dependencies []string
	// Prompt is the key prefix of the step's templates in the prompt file
	Prompt string
	// Schema names the JSON Schema the step's response must satisfy
	Schema string
	// Reads lists the state fields the step's prompt is built from
	Reads []string
	// Kind is the partial the step merges into the state
	Kind types.PartialKind
}

var order = []string{
	PreliminaryInfo,
	CandidateCritic,
	CandidateFan,
	ResumeCritic,
	ResumeFan,
	NeutralJudge,
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	PreliminaryInfo: {
		Name:         PreliminaryInfo,
		Title:        "Extracting candidate profile",
		Category:     types.StepCategoryProfile,
		Dependencies: []string{},
		Prompt:       PreliminaryInfo,
		Schema:       schemas.PreliminaryInfo,
		Reads:        []string{"resume"},
		Kind:         types.KindPreliminaryInfo,
	},
	CandidateCritic: {
		Name:         CandidateCritic,
		Title:        "Critiquing the candidate",
		Category:     types.StepCategoryCandidate,
		Dependencies: []string{PreliminaryInfo},
		Prompt:       CandidateCritic,
		Schema:       schemas.CandidateCritic,
		Reads:        []string{"resume"},
		Kind:         types.KindCandidateCritique,
	},
	CandidateFan: {
		Name:         CandidateFan,
		Title:        "Praising the candidate",
		Category:     types.StepCategoryCandidate,
		Dependencies: []string{CandidateCritic},
		Prompt:       CandidateFan,
		Schema:       schemas.CandidateFan,
		Reads:        []string{"resume"},
		Kind:         types.KindCandidatePraise,
	},
	ResumeCritic: {
		Name:         ResumeCritic,
		Title:        "Critiquing the resume writing",
		Category:     types.StepCategoryResume,
		Dependencies: []string{CandidateFan},
		Prompt:       ResumeCritic,
		Schema:       schemas.ResumeCritic,
		Reads:        []string{"resume", "professions"},
		Kind:         types.KindResumeCritique,
	},
	ResumeFan: {
		Name:         ResumeFan,
		Title:        "Praising the resume writing",
		Category:     types.StepCategoryResume,
		Dependencies: []string{ResumeCritic},
		Prompt:       ResumeFan,
		Schema:       schemas.ResumeFan,
		Reads:        []string{"resume", "professions"},
		Kind:         types.KindResumePraise,
	},
	NeutralJudge: {
		Name:         NeutralJudge,
		Title:        "Scoring every point",
		Category:     types.StepCategoryScoring,
		Dependencies: []string{ResumeFan},
		Prompt:       NeutralJudge,
		Schema:       schemas.NeutralJudge,
		Reads: []string{
			"professions", "negative_points", "positive_points",
			"negative_points_resume", "positive_points_resume",
		},
		Kind: types.KindJudgeScores,
	},
}

// Order returns the step names in their strict execution order.
func Order() []string {
	return append([]string(nil), order...)
}

// Get returns the definition of a step.
func Get(name string) (StepDefinition, bool) {
	def, ok := StepRegistry[name]
	return def, ok
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks if all required dependencies for a step are completed
func ValidateDependencies(completed []string, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	done := make(map[string]bool, len(completed))
	for _, name := range completed {
		done[name] = true
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !done[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}

	return nil
}
