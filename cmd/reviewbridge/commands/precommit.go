package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AmirShayegh/codex-claude-bridge/internal/bridge"
)

var (
	// precommitInput is an optional explicit diff, a file path or `-`
	// for stdin. When unset the staged diff is read from git.
	precommitInput string

	// precommitChecklist lists extra checks as a comma separated list.
	precommitChecklist string
)

var precommitCmd = &cobra.Command{
	Use:   "review-precommit",
	Short: "Gate a commit on a final review",
	Long: `Run a final review of the staged changes and decide whether the
commit should proceed. Exits 0 when the changes are ready, 2 when the
reviewer found blockers, and 1 on operational failure, so it slots
directly into a git pre-commit hook.`,
	RunE: runReviewPrecommit,
}

func init() {
	precommitCmd.Flags().StringVar(
		&precommitInput, "diff", "",
		"unified diff, a file path or '-' for stdin "+
			"(default: staged changes)",
	)
	precommitCmd.Flags().StringVar(
		&precommitChecklist, "checklist", "",
		"comma separated extra checks",
	)
}

func runReviewPrecommit(cmd *cobra.Command, _ []string) error {
	args := bridge.PrecommitArgs{
		AutoDiff:  true,
		Checklist: splitCSV(precommitChecklist),
		SessionID: sessionOption(),
	}
	if precommitInput != "" {
		diff, err := readInput(precommitInput)
		if err != nil {
			return err
		}
		args.Diff = &diff
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

	result, err := svc.Precommit(cmd.Context(), args)
	if err != nil {
		return err
	}

	if err := newRenderer(os.Stdout).PrecommitResult(&result); err != nil {
		return err
	}

	if !result.ReadyToCommit {
		return errCommitBlocked
	}
	return nil
}
