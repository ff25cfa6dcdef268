package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// TestDepthFlagValidation checks that review depths are rejected at flag
// parse time.
func TestDepthFlagValidation(t *testing.T) {
	t.Parallel()

	var flag depthFlag
	require.NoError(t, flag.Set("quick"))
	require.Equal(t, review.DepthQuick, flag.depth)

	require.NoError(t, flag.Set("thorough"))
	require.Equal(t, review.DepthThorough, flag.depth)

	err := flag.Set("exhaustive")
	require.ErrorContains(t, err, `invalid depth "exhaustive"`)
}

func TestSplitCSV(t *testing.T) {
	t.Parallel()

	require.Nil(t, splitCSV(""))
	require.Equal(t, []string{"security"}, splitCSV("security"))
	require.Equal(
		t, []string{"security", "performance"},
		splitCSV(" security, performance ,"),
	)
}

func TestReadInputFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plan.md")
	require.NoError(t, os.WriteFile(path, []byte("add caching"), 0o644))

	text, err := readInput(path)
	require.NoError(t, err)
	require.Equal(t, "add caching", text)

	_, err = readInput(filepath.Join(t.TempDir(), "missing.md"))
	require.ErrorContains(t, err, "failed to read")
}

// TestStdinLatch checks that only one flag per invocation may drain stdin.
func TestStdinLatch(t *testing.T) {
	stdinConsumed = true
	t.Cleanup(func() { stdinConsumed = false })

	_, err := readInput("-")
	require.ErrorContains(t, err, "stdin already consumed")
}

func TestRendererPrecommitBlocked(t *testing.T) {
	t.Setenv("FORCE_COLOR", "0")

	var buf bytes.Buffer
	r := newRenderer(&buf)
	r.json = false

	err := r.PrecommitResult(&review.PrecommitResult{
		ReadyToCommit: false,
		Blockers:      []string{"Missing error handling"},
		Warnings:      []string{"Consider a test for the retry path"},
		SessionID:     "thread_9",
	})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "COMMIT BLOCKED")
	require.Contains(t, out, "Missing error handling")
	require.Contains(t, out, "Consider a test for the retry path")
	require.Contains(t, out, "session: thread_9")
}

func TestRendererPrecommitReady(t *testing.T) {
	t.Setenv("FORCE_COLOR", "0")

	var buf bytes.Buffer
	r := newRenderer(&buf)
	r.json = false

	err := r.PrecommitResult(&review.PrecommitResult{
		ReadyToCommit: true,
		Blockers:      []string{},
		Warnings:      []string{},
		SessionID:     "thread_9",
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "READY TO COMMIT")
	require.NotContains(t, buf.String(), "Blockers")
}

func TestRendererPlanJSON(t *testing.T) {
	t.Setenv("FORCE_COLOR", "0")

	var buf bytes.Buffer
	r := newRenderer(&buf)
	r.json = true

	err := r.PlanResult(&review.PlanResult{
		Verdict:   review.PlanApprove,
		Summary:   "Plan looks solid.",
		Findings:  []review.Finding{},
		SessionID: "thread_1",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"verdict": "approve",
		"summary": "Plan looks solid.",
		"findings": [],
		"session_id": "thread_1"
	}`, buf.String())
}

func TestRendererCodeChunks(t *testing.T) {
	t.Setenv("FORCE_COLOR", "0")

	file := "internal/auth/token.go"
	line := 42
	chunks := 2

	var buf bytes.Buffer
	r := newRenderer(&buf)
	r.json = false

	err := r.CodeResult(&review.CodeResult{
		Verdict: review.CodeRequestChanges,
		Summary: "Token refresh races with expiry.",
		Findings: []review.Finding{{
			Severity:    "major",
			Category:    "bug",
			Description: "refresh and expiry race",
			File:        &file,
			Line:        &line,
		}},
		SessionID:      "thread_2",
		ChunksReviewed: &chunks,
	})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "REQUEST_CHANGES")
	require.Contains(t, out, "internal/auth/token.go:42")
	require.Contains(t, out, "reviewed in 2 chunks")
}
