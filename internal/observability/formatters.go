// Package observability renders analysis runs and progress for the CLI.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-reviewer/internal/scoring"
	"github.com/jonathan/resume-reviewer/internal/types"
)

const (
	// boxWidth is the width of formatted output boxes
	boxWidth = 72
	// gaugeWidth is the number of cells in a score gauge
	gaugeWidth = 20
	// gaugeRange is the largest display figure magnitude (a mean of 10)
	gaugeRange = 10 * scoring.DisplayScale
)

// Printer writes human-readable analysis output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a titled box, wrapping content lines to the box width
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, inner) {
			fmt.Fprintf(p.out, "│ %s │\n", pad(wrapped, inner))
		}
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad right-pads s with spaces to width runes
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// wrap breaks line at spaces so no piece exceeds width runes, keeping the
// line's indentation on continuation lines. Words longer than width are cut.
func wrap(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}
	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	cont := indent + "  "

	var out []string
	current := indent
	for _, word := range strings.Fields(line) {
		for utf8.RuneCountInString(word) > width-len(cont) {
			cut := []rune(word)[:width-len(cont)]
			if strings.TrimSpace(current) != "" {
				out = append(out, current)
			}
			out = append(out, cont+string(cut))
			word = string([]rune(word)[len(cut):])
			current = cont
		}
		switch {
		case strings.TrimSpace(current) == "":
			current += word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) > width:
			out = append(out, current)
			current = cont + word
		default:
			current += " " + word
		}
	}
	if strings.TrimSpace(current) != "" {
		out = append(out, current)
	}
	return out
}

// Gauge draws a display figure on a centred [-1000, 1000] bar.
func Gauge(value int) string {
	half := gaugeWidth / 2
	v := max(-gaugeRange, min(gaugeRange, value))
	cells := (abs(v)*half + gaugeRange/2) / gaugeRange

	bar := []rune(strings.Repeat("·", gaugeWidth))
	if v < 0 {
		for i := half - cells; i < half; i++ {
			bar[i] = '█'
		}
	} else {
		for i := half; i < half+cells; i++ {
			bar[i] = '█'
		}
	}
	return "[" + string(bar[:half]) + "|" + string(bar[half:]) + "]"
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// PrintStepStarted prints the "Step i/n" banner of a stage
//
//nolint:errcheck
func (p *Printer) PrintStepStarted(event types.ProgressEvent) {
	fmt.Fprintf(p.out, "Step %d/%d: %s...\n", event.Index, event.Total, event.Message)
}

// PrintProgress prints one progress event as a single line
//
//nolint:errcheck
func (p *Printer) PrintProgress(event types.ProgressEvent) {
	switch event.Status {
	case types.StepStatusInProgress:
		p.PrintStepStarted(event)
	case types.StepStatusCompleted:
		if event.Step != "" {
			fmt.Fprintf(p.out, "  ✓ %s\n", event.Message)
		}
	case types.StepStatusFailed:
		fmt.Fprintf(p.out, "  ✗ %s\n", event.Message)
	case types.RunStatusCancelled:
		fmt.Fprintf(p.out, "  ⊘ %s\n", event.Message)
	}
}

// PrintProfile outputs the extracted professional profile.
func (p *Printer) PrintProfile(state *types.AnalysisState) {
	if state == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Professions:   %s\n", joinOrNone(state.Professions))
	fmt.Fprintf(&sb, "Organizations: %s\n", joinOrNone(state.OrganizationsWorked))
	fmt.Fprintf(&sb, "Designations:  %s\n", joinOrNone(state.Designation))
	fmt.Fprintf(&sb, "Resume length: %d page(s)", state.PortfolioLength)

	if len(state.Experience) > 0 {
		sb.WriteString("\n\nExperience:\n")
		professions := make([]string, 0, len(state.Experience))
		for prof := range state.Experience {
			professions = append(professions, prof)
		}
		sort.Strings(professions)
		for _, prof := range professions {
			fmt.Fprintf(&sb, "  • %s: %d year(s)\n", prof, state.Experience[prof])
		}
	}

	p.printBox("CANDIDATE PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// PrintSection outputs one point list with the judge's score beside each point.
func (p *Printer) PrintSection(section scoring.Section) {
	var sb strings.Builder
	if len(section.Points) == 0 {
		sb.WriteString("(no points)")
	}
	for i, sp := range section.Points {
		score := "  ?"
		if sp.Score != nil {
			score = fmt.Sprintf("%+3d", *sp.Score)
		}
		point := sp.Point
		if point == "" {
			point = "(score without a point)"
		}
		fmt.Fprintf(&sb, "%s  %s", score, point)
		if i < len(section.Points)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox(strings.ToUpper(section.Title), sb.String())
}

// PrintSummary outputs the four display figures and the overall match.
func (p *Printer) PrintSummary(summary *types.ScoreSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	rows := []struct {
		label string
		value int
	}{
		{"Candidate weaknesses", summary.CandidateNegative},
		{"Candidate strengths", summary.CandidatePositive},
		{"Resume weaknesses", summary.ResumeNegative},
		{"Resume strengths", summary.ResumePositive},
	}
	for _, row := range rows {
		fmt.Fprintf(&sb, "%-21s %6d  %s\n", row.label, row.value, Gauge(row.value))
	}
	fmt.Fprintf(&sb, "\nOverall match: %.2f", summary.OverallMatch)

	p.printBox("SCORE SUMMARY", sb.String())
}

// PrintViolations lists the score lists whose length differs from their points.
func (p *Printer) PrintViolations(violations []types.AlignmentViolation) {
	if len(violations) == 0 {
		return
	}

	var sb strings.Builder
	for i, v := range violations {
		fmt.Fprintf(&sb, "• %s: %d point(s), %d score(s)", v.Points, v.PointCount, v.ScoreCount)
		if i < len(violations)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("ALIGNMENT WARNINGS", sb.String())
}

// PrintRun outputs the full report of a run: profile, scored points, summary
// and warnings. Failed and cancelled runs print their status and error.
//
//nolint:errcheck
func (p *Printer) PrintRun(run *types.Run) {
	if run == nil {
		return
	}

	fmt.Fprintf(p.out, "Thread: %s\n", run.ThreadID)
	if run.SourceName != "" {
		fmt.Fprintf(p.out, "Source: %s\n", run.SourceName)
	}
	fmt.Fprintf(p.out, "Status: %s\n\n", run.Status)

	if step := run.Step("preliminary_info"); step != nil && step.Status == types.StepStatusCompleted {
		p.PrintProfile(&run.State)
	}

	if run.Complete() {
		for _, section := range scoring.Sections(&run.State) {
			p.PrintSection(section)
		}
		p.PrintSummary(run.Summary)
		p.PrintViolations(run.Violations)
	}

	if run.Error != "" {
		fmt.Fprintf(p.out, "\nError: %s\n", run.Error)
	}
}
