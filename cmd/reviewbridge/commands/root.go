// Package commands implements the reviewbridge command line interface.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AmirShayegh/codex-claude-bridge/internal/build"
)

var (
	// configDir is the directory searched for .reviewbridge.json.
	configDir string

	// sessionID resumes a previous review thread when set.
	sessionID string

	// jsonOutput prints the raw result JSON instead of rendered text.
	jsonOutput bool

	// dbPath overrides the default session database location.
	dbPath string

	// verbose enables debug logging.
	verbose bool
)

// errCommitBlocked signals that a precommit review found blockers. It is
// mapped to a distinct exit code so commit hooks can tell a blocked commit
// apart from an operational failure.
var errCommitBlocked = errors.New("commit blocked")

var rootCmd = &cobra.Command{
	Use:     "reviewbridge",
	Short:   "Bridge code reviews to the Codex reviewer",
	Version: build.Version,
	Long: `reviewbridge runs plan, code, and precommit reviews against the
Codex reviewer. Without arguments it serves the review tools over stdio;
with a subcommand it runs a single review and prints the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configDir, "config", "",
		"directory containing .reviewbridge.json",
	)
	rootCmd.PersistentFlags().StringVar(
		&sessionID, "session", "",
		"session ID of a previous review to resume",
	)
	rootCmd.PersistentFlags().BoolVar(
		&jsonOutput, "json", false,
		"print the raw result JSON",
	)
	rootCmd.PersistentFlags().StringVar(
		&dbPath, "db", "",
		"path to the session database",
	)
	rootCmd.PersistentFlags().BoolVar(
		&verbose, "verbose", false,
		"enable debug logging",
	)

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(codeCmd)
	rootCmd.AddCommand(precommitCmd)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errCommitBlocked) {
			return 2
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
