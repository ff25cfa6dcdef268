// Package store persists review sessions and the append-only review log in
// SQLite. A mirrored in-memory implementation backs tests and the degraded
// mode used when the database cannot be opened.
package store

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// DefaultStoreTimeout is the default timeout used for any interaction with
// the database.
var DefaultStoreTimeout = time.Second * 10

// CreateLogParams carries the fields for one review log entry. ID and
// Timestamp are assigned by the store.
type CreateLogParams struct {
	SessionID string
	Type      review.Kind
	Verdict   string
	Summary   string

	// FindingsJSON is the JSON-encoded findings (or blockers/warnings)
	// payload of the result.
	FindingsJSON string
}

// SessionStore tracks the lifecycle of review sessions.
type SessionStore interface {
	// GetOrCreate returns the session row for id, inserting a fresh
	// in_progress row when none exists. Calling it twice returns the
	// same row.
	GetOrCreate(ctx context.Context, id string) (review.SessionInfo,
		error)

	// Activate upserts the session into in_progress with a cleared
	// completion time. The created_at of a pre-existing row is
	// preserved.
	Activate(ctx context.Context, id string) (review.SessionInfo, error)

	// MarkCompleted stamps the session completed now. Unknown ids are a
	// no-op.
	MarkCompleted(ctx context.Context, id string) error

	// MarkFailed stamps the session failed now. Unknown ids are a no-op.
	MarkFailed(ctx context.Context, id string) error

	// Lookup returns the session row for id, or None when absent.
	Lookup(ctx context.Context,
		id string) (fn.Option[review.SessionInfo], error)
}

// ReviewLog is the append-only record of completed reviews.
type ReviewLog interface {
	// Save appends one entry and returns it with its assigned id and
	// timestamp.
	Save(ctx context.Context, params CreateLogParams) (review.LogEntry,
		error)

	// BySession returns all entries for a session, oldest first. An
	// unknown session yields an empty slice.
	BySession(ctx context.Context, id string) ([]review.LogEntry, error)

	// Recent returns the newest n entries, newest first.
	Recent(ctx context.Context, n int) ([]review.LogEntry, error)
}

// Storage is the full persistence surface of the bridge.
type Storage interface {
	SessionStore
	ReviewLog

	// Close releases the underlying resources.
	Close() error
}
