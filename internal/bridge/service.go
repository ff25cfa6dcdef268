package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/AmirShayegh/codex-claude-bridge/internal/codex"
	"github.com/AmirShayegh/codex-claude-bridge/internal/gitdiff"
	"github.com/AmirShayegh/codex-claude-bridge/internal/metrics"
	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
	"github.com/AmirShayegh/codex-claude-bridge/internal/store"
)

// DefaultHistoryLimit is the number of entries history returns when the
// caller names neither a session nor a limit.
const DefaultHistoryLimit = 10

// Reviewer is the reviewer-client surface the handlers depend on.
type Reviewer interface {
	ReviewPlan(ctx context.Context,
		req codex.PlanReview) (review.PlanResult, error)
	ReviewCode(ctx context.Context,
		req codex.CodeReview) (review.CodeResult, error)
	ReviewPrecommit(ctx context.Context,
		req codex.PrecommitReview) (review.PrecommitResult, error)
}

// PrecommitArgs carries a precommit request before diff resolution.
type PrecommitArgs struct {
	// Diff is an explicit diff; non-nil wins over AutoDiff.
	Diff *string

	// AutoDiff reads the staged diff from git when no explicit diff is
	// given.
	AutoDiff bool

	Checklist []string
	SessionID fn.Option[string]
}

// Service wires the handlers to the reviewer client, the diff resolver, and
// persistence. Storage may be nil, in which case session tracking is
// disabled but reviews still run.
type Service struct {
	reviewer Reviewer
	storage  store.Storage
	resolver gitdiff.Resolver
	log      *slog.Logger
}

// NewService constructs the handler set.
func NewService(reviewer Reviewer, storage store.Storage,
	resolver gitdiff.Resolver, log *slog.Logger) *Service {

	if log == nil {
		log = slog.Default()
	}

	return &Service{
		reviewer: reviewer,
		storage:  storage,
		resolver: resolver,
		log:      log,
	}
}

// reviewLog derives a logger scoped to a single review. The generated
// review_id ties the tracker's storage warnings to the review that hit
// them.
func (s *Service) reviewLog(kind review.Kind) *slog.Logger {
	return s.log.With(
		"review_id", uuid.NewString(), "kind", string(kind),
	)
}

// observe records the per-review metrics.
func observe(kind review.Kind, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.ReviewsTotal.WithLabelValues(string(kind), outcome).Inc()
	metrics.ReviewDuration.WithLabelValues(string(kind)).
		Observe(time.Since(start).Seconds())
}

// recovered renders a panic from the pipeline as the fallback error code.
func recovered(r any) error {
	return review.E(review.CodeUnknown, "unexpected failure: %v", r)
}

// Plan handles a plan review request.
func (s *Service) Plan(ctx context.Context,
	req codex.PlanReview) (result review.PlanResult, err error) {

	start := time.Now()
	defer func() { observe(review.KindPlan, start, err) }()

	log := s.reviewLog(review.KindPlan)
	log.Debug("Starting review")

	tracker := NewTracker(s.storage, log)
	defer func() {
		if r := recover(); r != nil {
			tracker.RecordFailureBestEffort(ctx)
			result, err = review.PlanResult{}, recovered(r)
		}
	}()

	tracker.Preflight(ctx, req.SessionID)

	result, err = s.reviewer.ReviewPlan(ctx, req)
	if err != nil {
		tracker.RecordFailure(ctx)
		return review.PlanResult{}, err
	}

	tracker.RecordSuccess(ctx, result.SessionID, logEntryFromPlan(result))

	return result, nil
}

// Code handles a code review request.
func (s *Service) Code(ctx context.Context,
	req codex.CodeReview) (result review.CodeResult, err error) {

	start := time.Now()
	defer func() { observe(review.KindCode, start, err) }()

	log := s.reviewLog(review.KindCode)
	log.Debug("Starting review")

	tracker := NewTracker(s.storage, log)
	defer func() {
		if r := recover(); r != nil {
			tracker.RecordFailureBestEffort(ctx)
			result, err = review.CodeResult{}, recovered(r)
		}
	}()

	tracker.Preflight(ctx, req.SessionID)

	result, err = s.reviewer.ReviewCode(ctx, req)
	if err != nil {
		tracker.RecordFailure(ctx)
		return review.CodeResult{}, err
	}

	tracker.RecordSuccess(ctx, result.SessionID, logEntryFromCode(result))

	return result, nil
}

// Precommit handles a precommit check. An empty staged diff surfaces as the
// NO_STAGED_CHANGES sentinel; the transport decides whether that is an
// error (CLI) or a structured not-ready response (tool call, via
// NoStagedChangesResult).
func (s *Service) Precommit(ctx context.Context,
	args PrecommitArgs) (result review.PrecommitResult, err error) {

	start := time.Now()
	defer func() { observe(review.KindPrecommit, start, err) }()

	log := s.reviewLog(review.KindPrecommit)
	log.Debug("Starting review")

	tracker := NewTracker(s.storage, log)
	defer func() {
		if r := recover(); r != nil {
			tracker.RecordFailureBestEffort(ctx)
			result, err = review.PrecommitResult{}, recovered(r)
		}
	}()

	diff, err := s.resolver.Resolve(ctx, gitdiff.Request{
		Diff:     args.Diff,
		AutoDiff: args.AutoDiff,
	})
	if err != nil {
		return review.PrecommitResult{}, err
	}

	tracker.Preflight(ctx, args.SessionID)

	result, err = s.reviewer.ReviewPrecommit(ctx, codex.PrecommitReview{
		Diff:      diff,
		Checklist: args.Checklist,
		SessionID: args.SessionID,
	})
	if err != nil {
		tracker.RecordFailure(ctx)
		return review.PrecommitResult{}, err
	}

	tracker.RecordSuccess(
		ctx, result.SessionID, logEntryFromPrecommit(result),
	)

	return result, nil
}

// NoStagedChangesResult is the structured response the tool surface returns
// when the staged diff is empty.
func NoStagedChangesResult(
	sessionID fn.Option[string]) review.PrecommitResult {

	return review.PrecommitResult{
		ReadyToCommit: false,
		Blockers:      []string{},
		Warnings:      []string{gitdiff.NoStagedChangesMessage},
		SessionID:     sessionID.UnwrapOr(""),
	}
}

// StatusResponse is the session status surface.
type StatusResponse struct {
	Status         string `json:"status"`
	SessionID      string `json:"session_id"`
	ElapsedSeconds *int64 `json:"elapsed_seconds,omitempty"`
}

// Status reports the lifecycle state of a session and how long it has been
// (or was) running.
func (s *Service) Status(ctx context.Context,
	sessionID string) (StatusResponse, error) {

	notFound := StatusResponse{
		Status:    "not_found",
		SessionID: sessionID,
	}

	if s.storage == nil {
		return notFound, nil
	}

	found, err := s.storage.Lookup(ctx, sessionID)
	if err != nil {
		return StatusResponse{}, err
	}
	if found.IsNone() {
		return notFound, nil
	}

	info := found.UnwrapOr(review.SessionInfo{})

	// In-progress sessions measure from creation to now; finished ones
	// to their completion time, falling back to now for legacy rows
	// that predate the completed_at column.
	end := time.Now()
	if info.Status != review.StatusInProgress &&
		info.CompletedAt != nil {

		end = *info.CompletedAt
	}
	elapsed := int64(end.Sub(info.CreatedAt).Round(time.Second) /
		time.Second)

	return StatusResponse{
		Status:         string(info.Status),
		SessionID:      info.SessionID,
		ElapsedSeconds: &elapsed,
	}, nil
}

// HistoryEntry is one review log record on the history surface.
type HistoryEntry struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Type      review.Kind     `json:"type"`
	Verdict   string          `json:"verdict"`
	Summary   string          `json:"summary"`
	Findings  json.RawMessage `json:"findings"`
	Timestamp time.Time       `json:"timestamp"`
}

// HistoryResponse is the history surface.
type HistoryResponse struct {
	Reviews []HistoryEntry `json:"reviews"`
}

// History lists past reviews: all entries of one session when a session id
// is given, otherwise the most recent entries.
func (s *Service) History(ctx context.Context, sessionID fn.Option[string],
	lastN fn.Option[int]) (HistoryResponse, error) {

	empty := HistoryResponse{Reviews: []HistoryEntry{}}

	if s.storage == nil {
		return empty, nil
	}

	var (
		entries []review.LogEntry
		err     error
	)
	if id := sessionID.UnwrapOr(""); id != "" {
		entries, err = s.storage.BySession(ctx, id)
	} else {
		entries, err = s.storage.Recent(
			ctx, lastN.UnwrapOr(DefaultHistoryLimit),
		)
	}
	if err != nil {
		return HistoryResponse{}, err
	}

	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		findings := json.RawMessage(entry.Findings)
		if !json.Valid(findings) {
			findings = json.RawMessage("null")
		}

		out = append(out, HistoryEntry{
			ID:        entry.ID,
			SessionID: entry.SessionID,
			Type:      entry.Type,
			Verdict:   entry.Verdict,
			Summary:   entry.Summary,
			Findings:  findings,
			Timestamp: entry.Timestamp,
		})
	}

	return HistoryResponse{Reviews: out}, nil
}

// marshalFindings encodes findings for the review log.
func marshalFindings(findings []review.Finding) string {
	if findings == nil {
		findings = []review.Finding{}
	}
	return marshalJSON(findings)
}

// marshalJSON encodes v, falling back to null on the (unreachable for our
// types) encode failure.
func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// summarizePrecommit renders a one-line summary for the precommit log
// entry.
func summarizePrecommit(res review.PrecommitResult) string {
	if res.ReadyToCommit {
		if len(res.Warnings) == 0 {
			return "Ready to commit."
		}
		return fmt.Sprintf("Ready to commit with %d warning(s).",
			len(res.Warnings))
	}

	return fmt.Sprintf("Commit blocked: %s.",
		strings.Join(res.Blockers, "; "))
}
