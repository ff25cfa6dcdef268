package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// colorEnabled decides whether rendered output uses color. FORCE_COLOR
// overrides everything, then NO_COLOR, then whether stdout is a terminal
// that supports color.
func colorEnabled() bool {
	switch os.Getenv("FORCE_COLOR") {
	case "1":
		return true
	case "0":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return termenv.NewOutput(os.Stdout).ColorProfile() != termenv.Ascii
}

// renderer prints review results as either raw JSON or styled text.
type renderer struct {
	w    io.Writer
	json bool

	good lipgloss.Style
	warn lipgloss.Style
	bad  lipgloss.Style
	dim  lipgloss.Style
}

func newRenderer(w io.Writer) *renderer {
	r := &renderer{w: w, json: jsonOutput}
	if colorEnabled() {
		r.good = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).Bold(true)
		r.warn = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")).Bold(true)
		r.bad = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).Bold(true)
		r.dim = lipgloss.NewStyle().Faint(true)
	}
	return r
}

func (r *renderer) printJSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *renderer) verdictStyle(verdict string) lipgloss.Style {
	switch verdict {
	case string(review.PlanApprove):
		return r.good
	case string(review.PlanReject):
		return r.bad
	default:
		return r.warn
	}
}

func (r *renderer) severityStyle(severity string) lipgloss.Style {
	switch severity {
	case string(review.CodeSevCritical), string(review.CodeSevMajor):
		return r.bad
	case string(review.CodeSevMinor):
		return r.warn
	default:
		return r.dim
	}
}

func (r *renderer) printFindings(findings []review.Finding) {
	for _, f := range findings {
		location := ""
		if f.File != nil {
			location = *f.File
			if f.Line != nil {
				location = fmt.Sprintf("%s:%d",
					location, *f.Line)
			}
			location = " " + r.dim.Render(location)
		}
		fmt.Fprintf(r.w, "  [%s] %s%s: %s\n",
			r.severityStyle(f.Severity).Render(f.Severity),
			f.Category, location, f.Description)
		if f.Suggestion != nil && *f.Suggestion != "" {
			fmt.Fprintf(r.w, "    %s %s\n",
				r.dim.Render("suggestion:"), *f.Suggestion)
		}
	}
}

// PlanResult renders a plan review outcome.
func (r *renderer) PlanResult(result *review.PlanResult) error {
	if r.json {
		return r.printJSON(result)
	}

	style := r.verdictStyle(string(result.Verdict))
	fmt.Fprintf(r.w, "Verdict: %s\n\n%s\n",
		style.Render(strings.ToUpper(string(result.Verdict))),
		result.Summary)

	if len(result.Findings) > 0 {
		fmt.Fprintf(r.w, "\nFindings:\n")
		r.printFindings(result.Findings)
	}

	fmt.Fprintf(r.w, "\n%s\n",
		r.dim.Render("session: "+result.SessionID))
	return nil
}

// CodeResult renders a code review outcome.
func (r *renderer) CodeResult(result *review.CodeResult) error {
	if r.json {
		return r.printJSON(result)
	}

	style := r.verdictStyle(string(result.Verdict))
	fmt.Fprintf(r.w, "Verdict: %s\n\n%s\n",
		style.Render(strings.ToUpper(string(result.Verdict))),
		result.Summary)

	if len(result.Findings) > 0 {
		fmt.Fprintf(r.w, "\nFindings:\n")
		r.printFindings(result.Findings)
	}

	if result.ChunksReviewed != nil {
		fmt.Fprintf(r.w, "\n%s\n", r.dim.Render(fmt.Sprintf(
			"reviewed in %d chunks", *result.ChunksReviewed)))
	}

	fmt.Fprintf(r.w, "\n%s\n",
		r.dim.Render("session: "+result.SessionID))
	return nil
}

// PrecommitResult renders a precommit outcome. The caller still decides
// the exit code; this only handles presentation.
func (r *renderer) PrecommitResult(result *review.PrecommitResult) error {
	if r.json {
		return r.printJSON(result)
	}

	if result.ReadyToCommit {
		fmt.Fprintf(r.w, "%s\n", r.good.Render("READY TO COMMIT"))
	} else {
		fmt.Fprintf(r.w, "%s\n", r.bad.Render("COMMIT BLOCKED"))
	}

	if len(result.Blockers) > 0 {
		fmt.Fprintf(r.w, "\nBlockers:\n")
		for _, b := range result.Blockers {
			fmt.Fprintf(r.w, "  %s %s\n", r.bad.Render("✗"), b)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(r.w, "\nWarnings:\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(r.w, "  %s %s\n", r.warn.Render("!"), w)
		}
	}

	fmt.Fprintf(r.w, "\n%s\n",
		r.dim.Render("session: "+result.SessionID))
	return nil
}
