// Package codex owns the reviewer model boundary: thread lifecycle, single
// turns with deadlines, output validation with one retry, error
// classification into the bridge taxonomy, and multi-chunk orchestration
// with result merging.
package codex

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// ThreadOptions configure a reviewer thread at start or resume time.
type ThreadOptions struct {
	// Model is the reviewer model name.
	Model string

	// SandboxMode restricts what the reviewer may touch. Always
	// "read-only" for this bridge.
	SandboxMode string

	// SkipGitRepoCheck disables the SDK's repo-presence preflight; the
	// bridge supplies diffs directly.
	SkipGitRepoCheck bool

	// ReasoningEffort is one of low, medium, high.
	ReasoningEffort string
}

// Thread is a reviewer conversation. Turns on the same thread share
// server-side state, so sequential chunk reviews observe each other.
type Thread interface {
	// Run issues one prompt/response turn. The response is the raw
	// final text; callers parse and validate it. Run honors ctx
	// cancellation and deadlines.
	Run(ctx context.Context, prompt string,
		outputSchema *jsonschema.Schema) (string, error)

	// ID returns the thread identifier, or "" when the SDK has not
	// reported one yet.
	ID() string
}

// Client creates and resumes reviewer threads. Implementations wrap the
// vendor SDK; tests substitute scripted fakes.
type Client interface {
	// StartThread opens a fresh reviewer thread.
	StartThread(opts ThreadOptions) (Thread, error)

	// ResumeThread reattaches to an existing thread by id. A resume
	// targeting an unknown id fails with SESSION_NOT_FOUND.
	ResumeThread(id string, opts ThreadOptions) (Thread, error)
}
