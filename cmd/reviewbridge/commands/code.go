package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AmirShayegh/codex-claude-bridge/internal/codex"
)

var (
	// codeInput is the diff source, a file path or `-` for stdin.
	codeInput string

	// codeContext is extra background handed to the reviewer verbatim.
	codeContext string

	// codeCriteria lists review criteria as a comma separated list.
	codeCriteria string
)

var codeCmd = &cobra.Command{
	Use:   "review-code",
	Short: "Review a unified diff",
	Long: `Review a unified diff against the configured criteria. Large
diffs are split along file boundaries and reviewed chunk by chunk within
a single reviewer thread.`,
	RunE: runReviewCode,
}

func init() {
	codeCmd.Flags().StringVar(
		&codeInput, "diff", "",
		"unified diff, a file path or '-' for stdin",
	)
	codeCmd.Flags().StringVar(
		&codeContext, "context", "",
		"extra context for the reviewer",
	)
	codeCmd.Flags().StringVar(
		&codeCriteria, "focus", "",
		"comma separated review criteria",
	)

	codeCmd.MarkFlagRequired("diff")
}

func runReviewCode(cmd *cobra.Command, _ []string) error {
	diff, err := readInput(codeInput)
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

	result, err := svc.Code(cmd.Context(), codex.CodeReview{
		Diff:      diff,
		Context:   codeContext,
		Criteria:  splitCSV(codeCriteria),
		SessionID: sessionOption(),
	})
	if err != nil {
		return err
	}

	return newRenderer(os.Stdout).CodeResult(&result)
}
