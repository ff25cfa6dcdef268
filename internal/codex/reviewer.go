package codex

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/AmirShayegh/codex-claude-bridge/internal/chunker"
	"github.com/AmirShayegh/codex-claude-bridge/internal/config"
	"github.com/AmirShayegh/codex-claude-bridge/internal/metrics"
	"github.com/AmirShayegh/codex-claude-bridge/internal/prompt"
	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
	"github.com/AmirShayegh/codex-claude-bridge/internal/schema"
)

const (
	// fixedPromptOverhead is the token reserve for prompt scaffolding
	// (preamble, rubric, checklist, output spec) when sizing diff chunks.
	fixedPromptOverhead = 2000

	// minDiffBudget is the floor on the chunker budget, so pathological
	// configs still produce workable chunks.
	minDiffBudget = 500

	// requireTestsCriterion is appended to the review criteria when the
	// config demands test coverage for changes.
	requireTestsCriterion = "New or changed behavior must be covered " +
		"by tests"
)

// PlanReview is a plan review request. Zero-valued fields fall back to the
// configured per-kind defaults.
type PlanReview struct {
	Plan    string
	Context string
	Focus   []string
	Depth   review.Depth

	// SessionID resumes an existing reviewer thread when set.
	SessionID fn.Option[string]
}

// CodeReview is a code review request over a unified diff.
type CodeReview struct {
	Diff     string
	Context  string
	Criteria []string

	SessionID fn.Option[string]
}

// PrecommitReview is a precommit check over a staged diff.
type PrecommitReview struct {
	Diff      string
	Checklist []string

	SessionID fn.Option[string]
}

// Reviewer drives review turns against the reviewer model: it owns thread
// acquisition, per-turn deadlines, the validate-retry-once loop, and the
// sequential chunk orchestration for diff reviews.
type Reviewer struct {
	client  Client
	cfg     config.Config
	builder *prompt.Builder
	log     *slog.Logger
}

// NewReviewer constructs a Reviewer over the given client and config.
func NewReviewer(client Client, cfg config.Config,
	log *slog.Logger) *Reviewer {

	if log == nil {
		log = slog.Default()
	}

	return &Reviewer{
		client: client,
		cfg:    cfg,
		builder: &prompt.Builder{
			ProjectContext: cfg.ProjectContext,
			BlockOn:        cfg.Precommit.BlockOn,
		},
		log: log,
	}
}

// threadOptions derives the per-thread options from the config. The bridge
// never lets the reviewer touch the working tree, so the sandbox is always
// read-only.
func (r *Reviewer) threadOptions() ThreadOptions {
	return ThreadOptions{
		Model:            r.cfg.ModelName,
		SandboxMode:      "read-only",
		SkipGitRepoCheck: true,
		ReasoningEffort:  string(r.cfg.ReasoningEffort),
	}
}

// acquireThread starts a fresh thread, or resumes the caller's session when
// one was supplied.
func (r *Reviewer) acquireThread(sessionID fn.Option[string]) (Thread,
	error) {

	opts := r.threadOptions()

	if id := sessionID.UnwrapOr(""); id != "" {
		thread, err := r.client.ResumeThread(id, opts)
		if err != nil {
			if review.IsCode(err, review.CodeSessionNotFound) {
				return nil, err
			}
			return nil, review.E(review.CodeSessionNotFound,
				"cannot resume session %q: %v", id, err)
		}
		return thread, nil
	}

	thread, err := r.client.StartThread(opts)
	if err != nil {
		return nil, classify(err, r.cfg.ModelName)
	}
	return thread, nil
}

// resumeNext reattaches to the thread a previous chunk ran on. Losing a
// thread mid-review means the session is gone.
func (r *Reviewer) resumeNext(id string) (Thread, error) {
	thread, err := r.client.ResumeThread(id, r.threadOptions())
	if err != nil {
		if review.IsCode(err, review.CodeSessionNotFound) {
			return nil, err
		}
		return nil, review.E(review.CodeSessionNotFound,
			"cannot resume session %q: %v", id, err)
	}
	return thread, nil
}

// runTurn issues a single prompt/response turn bounded by the configured
// per-turn deadline. A cancellation-shaped failure is a timeout; everything
// else passes through the classifier.
func (r *Reviewer) runTurn(ctx context.Context, thread Thread,
	promptText string, kind review.Kind) (string, error) {

	timeout := time.Duration(r.cfg.TimeoutSeconds) * time.Second
	turnCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := thread.Run(turnCtx, promptText, schema.ForKind(kind))
	if err != nil {
		if isCancellation(err) {
			metrics.TurnsTotal.WithLabelValues("timeout").Inc()
			return "", review.E(review.CodeTimeout,
				"review timed out after %ds",
				r.cfg.TimeoutSeconds)
		}

		metrics.TurnsTotal.WithLabelValues("error").Inc()
		return "", classify(err, r.cfg.ModelName)
	}

	return out, nil
}

// runValidated runs prompt turns until the response validates, retrying the
// same prompt on the same thread exactly once. Two invalid responses in a
// row collapse to CODEX_PARSE_ERROR carrying the last validation message.
func runValidated[T any](ctx context.Context, r *Reviewer, thread Thread,
	promptText string, kind review.Kind,
	validate func([]byte) (T, error)) (T, error) {

	var (
		zero       T
		lastReason string
	)

	for attempt := 1; attempt <= 2; attempt++ {
		raw, err := r.runTurn(ctx, thread, promptText, kind)
		if err != nil {
			return zero, err
		}

		out, err := validate([]byte(raw))
		if err == nil {
			metrics.TurnsTotal.WithLabelValues("ok").Inc()
			return out, nil
		}

		var invalid *schema.InvalidResponseError
		if !errors.As(err, &invalid) {
			return zero, err
		}

		metrics.TurnsTotal.WithLabelValues("invalid").Inc()
		lastReason = invalid.Reason

		if attempt == 1 {
			r.log.Warn("Reviewer response invalid, retrying",
				"kind", kind, "reason", invalid.Reason)
		}
	}

	return zero, review.E(review.CodeParseError, "%s", lastReason)
}

// resolveSessionID picks the session id to attach to a result: the thread's
// reported id when present, otherwise the caller's.
func resolveSessionID(thread Thread,
	caller fn.Option[string]) (string, error) {

	if id := thread.ID(); id != "" {
		return id, nil
	}
	if id := caller.UnwrapOr(""); id != "" {
		return id, nil
	}

	return "", review.E(review.CodeParseError, "missing session ID")
}

// diffBudget sizes the chunker budget: the configured ceiling minus the
// fixed scaffolding reserve and the variable context/criteria overhead,
// floored at minDiffBudget.
func (r *Reviewer) diffBudget(reqContext string, criteria []string) int {
	variable := chunker.EstimateTokens(reqContext) +
		chunker.EstimateTokens(r.cfg.ProjectContext) +
		chunker.EstimateTokens(strings.Join(criteria, ", "))

	budget := r.cfg.MaxChunkTokens - fixedPromptOverhead - variable
	if budget < minDiffBudget {
		budget = minDiffBudget
	}
	return budget
}

// ReviewPlan runs a plan review as a single turn.
func (r *Reviewer) ReviewPlan(ctx context.Context,
	req PlanReview) (review.PlanResult, error) {

	focus := req.Focus
	if len(focus) == 0 {
		focus = r.cfg.Plan.Focus
	}
	depth := req.Depth
	if depth == "" {
		depth = r.cfg.Plan.Depth
	}

	thread, err := r.acquireThread(req.SessionID)
	if err != nil {
		return review.PlanResult{}, err
	}

	promptText := r.builder.Plan(prompt.PlanRequest{
		Plan:    req.Plan,
		Context: req.Context,
		Focus:   focus,
		Depth:   depth,
	})

	result, err := runValidated(
		ctx, r, thread, promptText, review.KindPlan,
		schema.ValidatePlan,
	)
	if err != nil {
		return review.PlanResult{}, err
	}

	sessionID, err := resolveSessionID(thread, req.SessionID)
	if err != nil {
		return review.PlanResult{}, err
	}
	result.SessionID = sessionID

	return result, nil
}

// ReviewCode runs a code review, chunking the diff when it exceeds the
// budget and merging per-chunk results.
func (r *Reviewer) ReviewCode(ctx context.Context,
	req CodeReview) (review.CodeResult, error) {

	criteria := req.Criteria
	if len(criteria) == 0 {
		criteria = r.cfg.Code.Criteria
	}
	if r.cfg.Code.RequireTests &&
		!slices.Contains(criteria, requireTestsCriterion) {

		criteria = append(slices.Clone(criteria), requireTestsCriterion)
	}

	chunks := chunker.Chunk(req.Diff, r.diffBudget(req.Context, criteria))

	switch len(chunks) {
	case 0:
		// Nothing to review; approve synthetically without touching
		// the SDK.
		return review.CodeResult{
			Verdict:   review.CodeApprove,
			Summary:   "No changes to review.",
			Findings:  []review.Finding{},
			SessionID: req.SessionID.UnwrapOr(""),
		}, nil

	case 1:
		return r.reviewCodeChunk(
			ctx, req, criteria, chunks[0], prompt.ChunkInfo{},
		)
	}

	r.log.Info("Diff exceeds chunk budget, reviewing sequentially",
		"chunks", len(chunks))

	results := make([]review.CodeResult, 0, len(chunks))
	for i, chunk := range chunks {
		var (
			thread Thread
			err    error
		)
		if i == 0 {
			thread, err = r.acquireThread(req.SessionID)
		} else {
			thread, err = r.resumeNext(
				results[i-1].SessionID,
			)
		}
		if err != nil {
			return review.CodeResult{}, err
		}

		promptText := r.builder.Code(prompt.CodeRequest{
			Diff:     chunk,
			Context:  req.Context,
			Criteria: criteria,
			Chunk: prompt.ChunkInfo{
				Index: i + 1,
				Total: len(chunks),
			},
		})

		result, err := runValidated(
			ctx, r, thread, promptText, review.KindCode,
			schema.ValidateCode,
		)
		if err != nil {
			return review.CodeResult{}, err
		}

		sessionID, err := resolveSessionID(thread, req.SessionID)
		if err != nil {
			return review.CodeResult{}, err
		}
		result.SessionID = sessionID

		results = append(results, result)
	}

	metrics.ChunksReviewed.Observe(float64(len(chunks)))

	return mergeCodeResults(results), nil
}

// reviewCodeChunk runs the single-turn code path.
func (r *Reviewer) reviewCodeChunk(ctx context.Context, req CodeReview,
	criteria []string, diff string,
	chunk prompt.ChunkInfo) (review.CodeResult, error) {

	thread, err := r.acquireThread(req.SessionID)
	if err != nil {
		return review.CodeResult{}, err
	}

	promptText := r.builder.Code(prompt.CodeRequest{
		Diff:     diff,
		Context:  req.Context,
		Criteria: criteria,
		Chunk:    chunk,
	})

	result, err := runValidated(
		ctx, r, thread, promptText, review.KindCode,
		schema.ValidateCode,
	)
	if err != nil {
		return review.CodeResult{}, err
	}

	sessionID, err := resolveSessionID(thread, req.SessionID)
	if err != nil {
		return review.CodeResult{}, err
	}
	result.SessionID = sessionID

	metrics.ChunksReviewed.Observe(1)

	return result, nil
}

// ReviewPrecommit runs a precommit check, chunking like a code review.
func (r *Reviewer) ReviewPrecommit(ctx context.Context,
	req PrecommitReview) (review.PrecommitResult, error) {

	chunks := chunker.Chunk(req.Diff, r.diffBudget("", req.Checklist))

	switch len(chunks) {
	case 0:
		return review.PrecommitResult{
			ReadyToCommit: true,
			Blockers:      []string{},
			Warnings:      []string{},
			SessionID:     req.SessionID.UnwrapOr(""),
		}, nil

	case 1:
		return r.reviewPrecommitChunk(
			ctx, req, chunks[0], prompt.ChunkInfo{},
		)
	}

	r.log.Info("Staged diff exceeds chunk budget, reviewing sequentially",
		"chunks", len(chunks))

	results := make([]review.PrecommitResult, 0, len(chunks))
	for i, chunk := range chunks {
		var (
			thread Thread
			err    error
		)
		if i == 0 {
			thread, err = r.acquireThread(req.SessionID)
		} else {
			thread, err = r.resumeNext(
				results[i-1].SessionID,
			)
		}
		if err != nil {
			return review.PrecommitResult{}, err
		}

		promptText := r.builder.Precommit(prompt.PrecommitRequest{
			Diff:      chunk,
			Checklist: req.Checklist,
			Chunk: prompt.ChunkInfo{
				Index: i + 1,
				Total: len(chunks),
			},
		})

		result, err := runValidated(
			ctx, r, thread, promptText, review.KindPrecommit,
			schema.ValidatePrecommit,
		)
		if err != nil {
			return review.PrecommitResult{}, err
		}

		sessionID, err := resolveSessionID(thread, req.SessionID)
		if err != nil {
			return review.PrecommitResult{}, err
		}
		result.SessionID = sessionID

		results = append(results, result)
	}

	metrics.ChunksReviewed.Observe(float64(len(chunks)))

	return mergePrecommitResults(results), nil
}

// reviewPrecommitChunk runs the single-turn precommit path.
func (r *Reviewer) reviewPrecommitChunk(ctx context.Context,
	req PrecommitReview, diff string,
	chunk prompt.ChunkInfo) (review.PrecommitResult, error) {

	thread, err := r.acquireThread(req.SessionID)
	if err != nil {
		return review.PrecommitResult{}, err
	}

	promptText := r.builder.Precommit(prompt.PrecommitRequest{
		Diff:      diff,
		Checklist: req.Checklist,
		Chunk:     chunk,
	})

	result, err := runValidated(
		ctx, r, thread, promptText, review.KindPrecommit,
		schema.ValidatePrecommit,
	)
	if err != nil {
		return review.PrecommitResult{}, err
	}

	sessionID, err := resolveSessionID(thread, req.SessionID)
	if err != nil {
		return review.PrecommitResult{}, err
	}
	result.SessionID = sessionID

	metrics.ChunksReviewed.Observe(1)

	return result, nil
}
