package codex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"

	"github.com/AmirShayegh/codex-claude-bridge/internal/config"
	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// planPayload is a schema-valid plan review response.
const planPayload = `{
	"verdict": "approve",
	"summary": "Plan looks solid",
	"findings": [{
		"severity": "minor",
		"category": "style",
		"description": "Consider renaming",
		"file": null,
		"line": null,
		"suggestion": null
	}]
}`

// scriptedTurn is one pre-programmed Run outcome.
type scriptedTurn struct {
	output string
	err    error
}

// fakeThread replays scripted turns and records the prompts it saw.
type fakeThread struct {
	id      string
	turns   []scriptedTurn
	prompts []string
}

func (t *fakeThread) Run(_ context.Context, prompt string,
	_ *jsonschema.Schema) (string, error) {

	t.prompts = append(t.prompts, prompt)

	if len(t.turns) == 0 {
		return "", errors.New("no scripted turn left")
	}

	turn := t.turns[0]
	t.turns = t.turns[1:]

	return turn.output, turn.err
}

func (t *fakeThread) ID() string {
	return t.id
}

// fakeClient hands out scripted threads in order and records how each was
// acquired.
type fakeClient struct {
	threads []*fakeThread
	next    int

	started    []ThreadOptions
	resumedIDs []string

	resumeErr map[string]error
}

func (c *fakeClient) nextThread() (*fakeThread, error) {
	if c.next >= len(c.threads) {
		return nil, errors.New("no scripted thread left")
	}
	thread := c.threads[c.next]
	c.next++
	return thread, nil
}

func (c *fakeClient) StartThread(opts ThreadOptions) (Thread, error) {
	c.started = append(c.started, opts)
	return c.nextThread()
}

func (c *fakeClient) ResumeThread(id string, _ ThreadOptions) (Thread,
	error) {

	c.resumedIDs = append(c.resumedIDs, id)

	if err, ok := c.resumeErr[id]; ok {
		return nil, err
	}
	return c.nextThread()
}

// testConfig returns the default config, which keeps the 300s timeout the
// timeout assertions depend on.
func testConfig() config.Config {
	return config.Default()
}

// chunkableDiff builds a two-file diff where each file fits the floored
// budget alone but the pair does not, forcing a file-boundary split.
func chunkableDiff() string {
	var sb strings.Builder
	for _, name := range []string{"src/a.ts", "src/b.ts"} {
		fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", name, name)
		fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", name, name)
		sb.WriteString("@@ -1,3 +1,30 @@\n")
		for i := 0; i < 30; i++ {
			fmt.Fprintf(&sb,
				"+const padding%d = %q\n",
				i, strings.Repeat("x", 30),
			)
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// TestReviewPlanHappyPath covers the single-turn plan flow: one turn, the
// validated result, and the thread id as the session id.
func TestReviewPlanHappyPath(t *testing.T) {
	t.Parallel()

	thread := &fakeThread{
		id:    "thread_abc",
		turns: []scriptedTurn{{output: planPayload}},
	}
	client := &fakeClient{threads: []*fakeThread{thread}}

	r := NewReviewer(client, testConfig(), nil)

	result, err := r.ReviewPlan(context.Background(), PlanReview{
		Plan: "Build auth module",
	})
	require.NoError(t, err)

	require.Equal(t, review.PlanApprove, result.Verdict)
	require.Equal(t, "Plan looks solid", result.Summary)
	require.Len(t, result.Findings, 1)
	require.Equal(t, "minor", result.Findings[0].Severity)
	require.Equal(t, "thread_abc", result.SessionID)

	require.Len(t, thread.prompts, 1)
	require.Len(t, client.started, 1)
	require.Equal(t, "read-only", client.started[0].SandboxMode)
	require.True(t, client.started[0].SkipGitRepoCheck)
}

// TestReviewPlanRetryOnMalformed covers the retry path: a malformed first
// response is retried with the identical prompt on the same thread.
func TestReviewPlanRetryOnMalformed(t *testing.T) {
	t.Parallel()

	thread := &fakeThread{
		id: "thread_abc",
		turns: []scriptedTurn{
			{output: "not json {{{"},
			{output: planPayload},
		},
	}
	client := &fakeClient{threads: []*fakeThread{thread}}

	r := NewReviewer(client, testConfig(), nil)

	result, err := r.ReviewPlan(context.Background(), PlanReview{
		Plan: "Build auth module",
	})
	require.NoError(t, err)
	require.Equal(t, review.PlanApprove, result.Verdict)

	require.Len(t, thread.prompts, 2)
	require.Equal(t, thread.prompts[0], thread.prompts[1])
}

// TestReviewPlanTwoMalformedTurns covers giving up after the single retry.
func TestReviewPlanTwoMalformedTurns(t *testing.T) {
	t.Parallel()

	thread := &fakeThread{
		id: "thread_abc",
		turns: []scriptedTurn{
			{output: "not json"},
			{output: "not json"},
		},
	}
	client := &fakeClient{threads: []*fakeThread{thread}}

	r := NewReviewer(client, testConfig(), nil)

	_, err := r.ReviewPlan(context.Background(), PlanReview{
		Plan: "Build auth module",
	})
	require.Error(t, err)
	require.True(t, review.IsCode(err, review.CodeParseError))
	require.Equal(t,
		"CODEX_PARSE_ERROR: malformed JSON in response", err.Error(),
	)
	require.Len(t, thread.prompts, 2)
}

// TestReviewPlanTimeout covers the cancellation-shaped SDK failure.
func TestReviewPlanTimeout(t *testing.T) {
	t.Parallel()

	thread := &fakeThread{
		turns: []scriptedTurn{{
			err: errors.New(
				"AbortError: the operation was aborted",
			),
		}},
	}
	client := &fakeClient{threads: []*fakeThread{thread}}

	r := NewReviewer(client, testConfig(), nil)

	_, err := r.ReviewPlan(context.Background(), PlanReview{
		Plan: "Build auth module",
	})
	require.Error(t, err)
	require.Equal(t,
		"CODEX_TIMEOUT: review timed out after 300s", err.Error(),
	)
}

// TestReviewPlanResumesCallerSession covers resume-by-session-id and the
// SESSION_NOT_FOUND mapping when the id is stale.
func TestReviewPlanResumesCallerSession(t *testing.T) {
	t.Parallel()

	t.Run("resumes", func(t *testing.T) {
		t.Parallel()

		thread := &fakeThread{
			id:    "thread_abc",
			turns: []scriptedTurn{{output: planPayload}},
		}
		client := &fakeClient{threads: []*fakeThread{thread}}

		r := NewReviewer(client, testConfig(), nil)

		result, err := r.ReviewPlan(context.Background(), PlanReview{
			Plan:      "Build auth module",
			SessionID: fn.Some("thread_abc"),
		})
		require.NoError(t, err)
		require.Equal(t, "thread_abc", result.SessionID)

		require.Empty(t, client.started)
		require.Equal(t, []string{"thread_abc"}, client.resumedIDs)
	})

	t.Run("stale id", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{
			resumeErr: map[string]error{
				"gone": errors.New("thread not found"),
			},
		}

		r := NewReviewer(client, testConfig(), nil)

		_, err := r.ReviewPlan(context.Background(), PlanReview{
			Plan:      "Build auth module",
			SessionID: fn.Some("gone"),
		})
		require.Error(t, err)
		require.True(t,
			review.IsCode(err, review.CodeSessionNotFound),
		)
	})
}

// TestSessionIDResolution covers the fallback chain: thread id, then caller
// id, then a hard error.
func TestSessionIDResolution(t *testing.T) {
	t.Parallel()

	t.Run("caller id fallback", func(t *testing.T) {
		t.Parallel()

		// Thread reports no id of its own.
		thread := &fakeThread{
			turns: []scriptedTurn{{output: planPayload}},
		}
		client := &fakeClient{threads: []*fakeThread{thread}}

		r := NewReviewer(client, testConfig(), nil)

		result, err := r.ReviewPlan(context.Background(), PlanReview{
			Plan:      "Build auth module",
			SessionID: fn.Some("caller_id"),
		})
		require.NoError(t, err)
		require.Equal(t, "caller_id", result.SessionID)
	})

	t.Run("no id at all", func(t *testing.T) {
		t.Parallel()

		thread := &fakeThread{
			turns: []scriptedTurn{{output: planPayload}},
		}
		client := &fakeClient{threads: []*fakeThread{thread}}

		r := NewReviewer(client, testConfig(), nil)

		_, err := r.ReviewPlan(context.Background(), PlanReview{
			Plan: "Build auth module",
		})
		require.Error(t, err)
		require.Equal(t,
			"CODEX_PARSE_ERROR: missing session ID", err.Error(),
		)
	})
}

// TestReviewCodeEmptyDiff covers the synthetic approve: no SDK call, caller
// session id preserved.
func TestReviewCodeEmptyDiff(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	r := NewReviewer(client, testConfig(), nil)

	result, err := r.ReviewCode(context.Background(), CodeReview{
		Diff:      "   \n\t",
		SessionID: fn.Some("caller_id"),
	})
	require.NoError(t, err)

	require.Equal(t, review.CodeApprove, result.Verdict)
	require.Equal(t, "No changes to review.", result.Summary)
	require.Empty(t, result.Findings)
	require.Equal(t, "caller_id", result.SessionID)
	require.Nil(t, result.ChunksReviewed)

	require.Empty(t, client.started)
	require.Empty(t, client.resumedIDs)
}

// TestReviewCodeSingleChunk covers the unchunked path: no chunk header in
// the prompt and no chunks_reviewed in the result.
func TestReviewCodeSingleChunk(t *testing.T) {
	t.Parallel()

	payload := `{
		"verdict": "approve",
		"summary": "Looks fine",
		"findings": []
	}`
	thread := &fakeThread{
		id:    "thread_abc",
		turns: []scriptedTurn{{output: payload}},
	}
	client := &fakeClient{threads: []*fakeThread{thread}}

	r := NewReviewer(client, testConfig(), nil)

	result, err := r.ReviewCode(context.Background(), CodeReview{
		Diff: "diff --git a/f b/f\n--- a/f\n+++ b/f\n" +
			"@@ -1 +1 @@\n-x\n+y",
	})
	require.NoError(t, err)

	require.Nil(t, result.ChunksReviewed)
	require.Equal(t, "thread_abc", result.SessionID)

	require.Len(t, thread.prompts, 1)
	require.NotContains(t, thread.prompts[0], "Chunk 1 of")
}

// TestReviewCodeMultiChunkMerge covers the sequential chunk flow: each
// chunk resumes the previous chunk's thread, the merged verdict is the
// worst, duplicate anchored findings collapse to the highest severity, and
// the session id is the last chunk's thread.
func TestReviewCodeMultiChunkMerge(t *testing.T) {
	t.Parallel()

	chunk1 := `{
		"verdict": "approve",
		"summary": "First half fine.",
		"findings": [{
			"severity": "minor",
			"category": "bug",
			"description": "Off by one",
			"file": "src/a.ts",
			"line": 10,
			"suggestion": null
		}]
	}`
	chunk2 := `{
		"verdict": "request_changes",
		"summary": "Second half has a bug.",
		"findings": [{
			"severity": "critical",
			"category": "bug",
			"description": "Off by one corrupts state",
			"file": "src/a.ts",
			"line": 10,
			"suggestion": null
		}]
	}`

	thread1 := &fakeThread{
		id:    "thread_1",
		turns: []scriptedTurn{{output: chunk1}},
	}
	thread2 := &fakeThread{
		id:    "thread_2",
		turns: []scriptedTurn{{output: chunk2}},
	}
	client := &fakeClient{threads: []*fakeThread{thread1, thread2}}

	cfg := testConfig()

	// Leave only the floored budget so the two-file diff splits.
	cfg.MaxChunkTokens = 1000

	r := NewReviewer(client, cfg, nil)

	result, err := r.ReviewCode(context.Background(), CodeReview{
		Diff: chunkableDiff(),
	})
	require.NoError(t, err)

	require.Equal(t, review.CodeRequestChanges, result.Verdict)
	require.Equal(t,
		"First half fine. Second half has a bug.", result.Summary,
	)

	require.Len(t, result.Findings, 1)
	require.Equal(t, "critical", result.Findings[0].Severity)

	require.NotNil(t, result.ChunksReviewed)
	require.Equal(t, 2, *result.ChunksReviewed)
	require.Equal(t, "thread_2", result.SessionID)

	// First chunk starts fresh; the second resumes the first's thread.
	require.Len(t, client.started, 1)
	require.Equal(t, []string{"thread_1"}, client.resumedIDs)

	require.Contains(t, thread1.prompts[0], "Chunk 1 of 2")
	require.Contains(t, thread2.prompts[0], "Chunk 2 of 2")
}

// TestReviewCodeChunkFailureFailsFast covers per-chunk error propagation:
// a failed second chunk aborts the whole review.
func TestReviewCodeChunkFailureFailsFast(t *testing.T) {
	t.Parallel()

	chunk1 := `{
		"verdict": "approve",
		"summary": "First half fine.",
		"findings": []
	}`
	thread1 := &fakeThread{
		id:    "thread_1",
		turns: []scriptedTurn{{output: chunk1}},
	}
	thread2 := &fakeThread{
		id: "thread_2",
		turns: []scriptedTurn{
			{output: "not json"},
			{output: "not json"},
		},
	}
	client := &fakeClient{threads: []*fakeThread{thread1, thread2}}

	cfg := testConfig()
	cfg.MaxChunkTokens = 1000

	r := NewReviewer(client, cfg, nil)

	_, err := r.ReviewCode(context.Background(), CodeReview{
		Diff: chunkableDiff(),
	})
	require.Error(t, err)
	require.True(t, review.IsCode(err, review.CodeParseError))
}

// TestReviewCodeRequireTests covers the config-driven criteria injection.
func TestReviewCodeRequireTests(t *testing.T) {
	t.Parallel()

	payload := `{
		"verdict": "approve",
		"summary": "Looks fine",
		"findings": []
	}`
	thread := &fakeThread{
		id:    "thread_abc",
		turns: []scriptedTurn{{output: payload}},
	}
	client := &fakeClient{threads: []*fakeThread{thread}}

	cfg := testConfig()
	cfg.Code.RequireTests = true

	r := NewReviewer(client, cfg, nil)

	_, err := r.ReviewCode(context.Background(), CodeReview{
		Diff: "diff --git a/f b/f\n--- a/f\n+++ b/f\n" +
			"@@ -1 +1 @@\n-x\n+y",
	})
	require.NoError(t, err)

	require.Len(t, thread.prompts, 1)
	require.Contains(t, thread.prompts[0], requireTestsCriterion)
}

// TestReviewPrecommit covers the precommit paths: a blocked single-chunk
// check and the multi-chunk AND merge.
func TestReviewPrecommit(t *testing.T) {
	t.Parallel()

	t.Run("blocked", func(t *testing.T) {
		t.Parallel()

		payload := `{
			"ready_to_commit": false,
			"blockers": ["Missing error handling"],
			"warnings": []
		}`
		thread := &fakeThread{
			id:    "thread_abc",
			turns: []scriptedTurn{{output: payload}},
		}
		client := &fakeClient{threads: []*fakeThread{thread}}

		r := NewReviewer(client, testConfig(), nil)

		result, err := r.ReviewPrecommit(
			context.Background(), PrecommitReview{
				Diff: "diff --git a/f b/f\n--- a/f\n" +
					"+++ b/f\n@@ -1 +1 @@\n-x\n+y",
			},
		)
		require.NoError(t, err)

		require.False(t, result.ReadyToCommit)
		require.Equal(t,
			[]string{"Missing error handling"}, result.Blockers,
		)
		require.Empty(t, result.Warnings)
		require.Nil(t, result.ChunksReviewed)
	})

	t.Run("multi-chunk AND", func(t *testing.T) {
		t.Parallel()

		ready := `{
			"ready_to_commit": true,
			"blockers": [],
			"warnings": ["Minor style drift"]
		}`
		blocked := `{
			"ready_to_commit": false,
			"blockers": ["Debug print left in"],
			"warnings": []
		}`
		thread1 := &fakeThread{
			id:    "thread_1",
			turns: []scriptedTurn{{output: ready}},
		}
		thread2 := &fakeThread{
			id:    "thread_2",
			turns: []scriptedTurn{{output: blocked}},
		}
		client := &fakeClient{
			threads: []*fakeThread{thread1, thread2},
		}

		cfg := testConfig()
		cfg.MaxChunkTokens = 1000

		r := NewReviewer(client, cfg, nil)

		result, err := r.ReviewPrecommit(
			context.Background(), PrecommitReview{
				Diff: chunkableDiff(),
			},
		)
		require.NoError(t, err)

		require.False(t, result.ReadyToCommit)
		require.Equal(t,
			[]string{"Debug print left in"}, result.Blockers,
		)
		require.Equal(t,
			[]string{"Minor style drift"}, result.Warnings,
		)
		require.NotNil(t, result.ChunksReviewed)
		require.Equal(t, 2, *result.ChunksReviewed)
		require.Equal(t, "thread_2", result.SessionID)
	})
}
