package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/resume-reviewer/internal/llm"
	"github.com/jonathan/resume-reviewer/internal/pipeline/steps"
	"github.com/jonathan/resume-reviewer/internal/types"
)

// Template variables filled from the state
const (
	varResume                  = "resume"
	varProfession              = "profession"
	varNegativePointsCandidate = "negative_points_candidate"
	varPositivePointsCandidate = "positive_points_candidate"
	varNegativePointsResume    = "negative_points_resume"
	varPositivePointsResume    = "positive_points_resume"
)

// professionSeparator joins the extracted professions into one prompt variable
const professionSeparator = ", "

// Stage binds a step definition to its loaded prompt template.
type Stage struct {
	Def      steps.StepDefinition
	Template llm.Template
}

// LoadStages loads the six stages in execution order.
func LoadStages() ([]Stage, error) {
	order := steps.Order()
	stages := make([]Stage, 0, len(order))
	for _, name := range order {
		def, _ := steps.Get(name)
		tmpl, err := llm.LoadTemplate(def.Prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompts for %s: %w", name, err)
		}
		stages = append(stages, Stage{Def: def, Template: tmpl})
	}
	return stages, nil
}

// Vars builds the template variables for the state fields the stage reads.
func (s Stage) Vars(state *types.AnalysisState) map[string]string {
	vars := make(map[string]string, 4)
	for _, field := range s.Def.Reads {
		switch field {
		case "resume":
			vars[varResume] = state.Resume
		case "professions":
			vars[varProfession] = strings.Join(state.Professions, professionSeparator)
		case "negative_points":
			vars[varNegativePointsCandidate] = numberedList(state.NegativePoints)
		case "positive_points":
			vars[varPositivePointsCandidate] = numberedList(state.PositivePoints)
		case "negative_points_resume":
			vars[varNegativePointsResume] = numberedList(state.NegativePointsResume)
		case "positive_points_resume":
			vars[varPositivePointsResume] = numberedList(state.PositivePointsResume)
		}
	}
	return vars
}

// numberedList renders points one per line as "1. ...", so a point that
// contains commas stays a single point and the judge can score by position.
func numberedList(points []string) string {
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, p)
	}
	return b.String()
}

// Execute calls the model for the stage, merges the decoded partial into
// state and returns it. state is untouched when an error is returned.
func (s Stage) Execute(ctx context.Context, caller *llm.Caller, state *types.AnalysisState) (types.Partial, *llm.CallResult, error) {
	req := llm.CallRequest{
		Template: s.Template,
		Schema:   s.Def.Schema,
		Vars:     s.Vars(state),
	}

	var partial types.Partial
	var result *llm.CallResult
	var err error

	switch s.Def.Kind {
	case types.KindPreliminaryInfo:
		var v types.PreliminaryInfo
		v, result, err = callInto(ctx, caller, req, types.PreliminaryInfo{}.Defaults())
		partial = types.NewPreliminaryInfoPartial(v)
	case types.KindCandidateCritique:
		var v types.CandidateCritique
		v, result, err = callInto(ctx, caller, req, types.CandidateCritique{}.Defaults())
		partial = types.NewCandidateCritiquePartial(v)
	case types.KindCandidatePraise:
		var v types.CandidatePraise
		v, result, err = callInto(ctx, caller, req, types.CandidatePraise{}.Defaults())
		partial = types.NewCandidatePraisePartial(v)
	case types.KindResumeCritique:
		var v types.ResumeCritique
		v, result, err = callInto(ctx, caller, req, types.ResumeCritique{}.Defaults())
		partial = types.NewResumeCritiquePartial(v)
	case types.KindResumePraise:
		var v types.ResumePraise
		v, result, err = callInto(ctx, caller, req, types.ResumePraise{}.Defaults())
		partial = types.NewResumePraisePartial(v)
	case types.KindJudgeScores:
		var v types.JudgeScores
		v, result, err = callInto(ctx, caller, req, types.JudgeScores{}.Defaults())
		partial = types.NewJudgeScoresPartial(v)
	default:
		return types.Partial{}, nil, fmt.Errorf("%w: %s", types.ErrUnknownPartial, s.Def.Kind)
	}
	if err != nil {
		return types.Partial{}, nil, err
	}

	if err := state.Merge(partial); err != nil {
		return types.Partial{}, result, err
	}
	return partial, result, nil
}

// callInto decodes the response over a copy of defaults.
func callInto[T any](ctx context.Context, caller *llm.Caller, req llm.CallRequest, defaults T) (T, *llm.CallResult, error) {
	out := defaults
	result, err := caller.Call(ctx, req, &out)
	return out, result, err
}
