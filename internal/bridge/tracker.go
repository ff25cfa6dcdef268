// Package bridge glues the review pipeline together: request handlers that
// resolve input, dispatch to the reviewer client, and record session state
// and the review log around each call.
package bridge

import (
	"context"
	"log/slog"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
	"github.com/AmirShayegh/codex-claude-bridge/internal/store"
)

// Tracker coordinates the session rows and review log entries around one
// request. Storage failures are logged and swallowed: persistence problems
// must never turn a finished review into an error.
type Tracker struct {
	storage store.Storage
	log     *slog.Logger

	// preflightID is the caller's session id once preflight has
	// activated it. Terminal status always lands on this id when set,
	// even if the reviewer handed back a different one.
	preflightID fn.Option[string]
}

// NewTracker creates a tracker over the given storage. A nil storage yields
// a no-op tracker.
func NewTracker(storage store.Storage, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}

	return &Tracker{
		storage: storage,
		log:     log,
	}
}

// Preflight activates the caller's session, when one was supplied, so the
// persisted state reads in_progress while the reviewer runs.
func (t *Tracker) Preflight(ctx context.Context,
	sessionID fn.Option[string]) {

	if t.storage == nil {
		return
	}

	id := sessionID.UnwrapOr("")
	if id == "" {
		return
	}

	if _, err := t.storage.Activate(ctx, id); err != nil {
		// Leave preflightID unset so a later failure is not
		// recorded against a row we never activated.
		t.log.Warn("Failed to activate session",
			"session_id", id, "error", err)
		return
	}

	t.preflightID = fn.Some(id)
}

// RecordSuccess persists the outcome of a successful review: the session
// row, the log entry, and the completed status.
func (t *Tracker) RecordSuccess(ctx context.Context, resultID string,
	params store.CreateLogParams) {

	if t.storage == nil {
		return
	}

	if t.preflightID.IsNone() {
		if _, err := t.storage.GetOrCreate(ctx, resultID); err != nil {
			t.log.Warn("Failed to create session",
				"session_id", resultID, "error", err)
		}
	}

	if _, err := t.storage.Save(ctx, params); err != nil {
		t.log.Warn("Failed to save review log entry",
			"session_id", params.SessionID, "error", err)
	}

	completeID := t.preflightID.UnwrapOr(resultID)
	if err := t.storage.MarkCompleted(ctx, completeID); err != nil {
		t.log.Warn("Failed to mark session completed",
			"session_id", completeID, "error", err)
	}
}

// RecordFailure marks the preflighted session failed. Without a preflight
// there is nothing to flip.
func (t *Tracker) RecordFailure(ctx context.Context) {
	if t.storage == nil {
		return
	}

	id := t.preflightID.UnwrapOr("")
	if id == "" {
		return
	}

	if err := t.storage.MarkFailed(ctx, id); err != nil {
		t.log.Warn("Failed to mark session failed",
			"session_id", id, "error", err)
	}
}

// RecordFailureBestEffort is RecordFailure hardened for the outermost
// recovery path: it additionally swallows panics from a broken store.
func (t *Tracker) RecordFailureBestEffort(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Warn("Recovered while recording failure",
				"panic", r)
		}
	}()

	t.RecordFailure(ctx)
}

// logEntryFromPlan builds the review log entry for a plan result.
func logEntryFromPlan(res review.PlanResult) store.CreateLogParams {
	return store.CreateLogParams{
		SessionID:    res.SessionID,
		Type:         review.KindPlan,
		Verdict:      string(res.Verdict),
		Summary:      res.Summary,
		FindingsJSON: marshalFindings(res.Findings),
	}
}

// logEntryFromCode builds the review log entry for a code result.
func logEntryFromCode(res review.CodeResult) store.CreateLogParams {
	return store.CreateLogParams{
		SessionID:    res.SessionID,
		Type:         review.KindCode,
		Verdict:      string(res.Verdict),
		Summary:      res.Summary,
		FindingsJSON: marshalFindings(res.Findings),
	}
}

// logEntryFromPrecommit builds the review log entry for a precommit result.
// Blockers and warnings stand in for findings; the verdict is the boolean
// gate.
func logEntryFromPrecommit(res review.PrecommitResult) store.CreateLogParams {
	verdict := "blocked"
	if res.ReadyToCommit {
		verdict = "ready"
	}

	return store.CreateLogParams{
		SessionID: res.SessionID,
		Type:      review.KindPrecommit,
		Verdict:   verdict,
		Summary:   summarizePrecommit(res),
		FindingsJSON: marshalJSON(map[string][]string{
			"blockers": res.Blockers,
			"warnings": res.Warnings,
		}),
	}
}
