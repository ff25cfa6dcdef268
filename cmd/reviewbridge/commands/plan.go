package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AmirShayegh/codex-claude-bridge/internal/codex"
)

var (
	// planInput is the plan text source, a file path or `-` for stdin.
	planInput string

	// planContext is extra background handed to the reviewer verbatim.
	planContext string

	// planFocus lists focus areas as a comma separated list.
	planFocus string

	// planDepth selects quick or thorough review depth.
	planDepth depthFlag
)

var planCmd = &cobra.Command{
	Use:   "review-plan",
	Short: "Review an implementation plan",
	Long: `Review an implementation plan before any code is written. The
plan is read from a file or stdin and the reviewer's verdict, summary,
and findings are printed.`,
	RunE: runReviewPlan,
}

func init() {
	planCmd.Flags().StringVar(
		&planInput, "plan", "",
		"plan text, a file path or '-' for stdin",
	)
	planCmd.Flags().StringVar(
		&planContext, "context", "",
		"extra context for the reviewer",
	)
	planCmd.Flags().StringVar(
		&planFocus, "focus", "",
		"comma separated focus areas",
	)
	planCmd.Flags().Var(
		&planDepth, "depth",
		"review depth, 'quick' or 'thorough'",
	)

	planCmd.MarkFlagRequired("plan")
}

func runReviewPlan(cmd *cobra.Command, _ []string) error {
	plan, err := readInput(planInput)
	if err != nil {
		return err
	}

	logs, err := newLogManager()
	if err != nil {
		return err
	}
	defer logs.Close()

	svc, cleanup, err := newService(logs.Logger())
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.Plan(cmd.Context(), codex.PlanReview{
		Plan:      plan,
		Context:   planContext,
		Focus:     splitCSV(planFocus),
		Depth:     planDepth.depth,
		SessionID: sessionOption(),
	})
	if err != nil {
		return err
	}

	return newRenderer(os.Stdout).PlanResult(&result)
}

// splitCSV splits a comma separated flag value, trimming whitespace and
// dropping empty elements.
func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
