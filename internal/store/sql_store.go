package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// SQLStore implements Storage over a SQLite database. Every mutation is a
// single statement, so no multi-statement transactions are needed.
type SQLStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLStore creates a new SQLStore wrapping the given database connection.
func NewSQLStore(db *sql.DB, log *slog.Logger) *SQLStore {
	if log == nil {
		log = slog.Default()
	}

	return &SQLStore{
		db:  db,
		log: log,
	}
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// storageErr renders an infrastructure failure as a STORAGE_ERROR carrying
// the mapped database error.
func storageErr(op string, err error) error {
	return review.E(review.CodeStorageError, "%s: %v", op,
		MapSQLError(err))
}

// scanSession reads one sessions row.
func scanSession(row *sql.Row) (review.SessionInfo, error) {
	var (
		info        review.SessionInfo
		status      string
		completedAt sql.NullTime
	)

	err := row.Scan(
		&info.SessionID, &status, &info.CreatedAt, &completedAt,
	)
	if err != nil {
		return review.SessionInfo{}, err
	}

	info.Status = review.SessionStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		info.CompletedAt = &t
	}

	return info, nil
}

// getSession fetches a session row by id.
func (s *SQLStore) getSession(ctx context.Context,
	id string) (review.SessionInfo, error) {

	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, status, created_at, completed_at
		FROM sessions WHERE session_id = ?`, id,
	)

	return scanSession(row)
}

// GetOrCreate implements SessionStore.
func (s *SQLStore) GetOrCreate(ctx context.Context,
	id string) (review.SessionInfo, error) {

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id) VALUES (?)
		ON CONFLICT (session_id) DO NOTHING`, id,
	)
	if err != nil {
		return review.SessionInfo{},
			storageErr("failed to create session", err)
	}

	info, err := s.getSession(ctx, id)
	if err != nil {
		return review.SessionInfo{},
			storageErr("failed to read session", err)
	}

	return info, nil
}

// Activate implements SessionStore.
func (s *SQLStore) Activate(ctx context.Context,
	id string) (review.SessionInfo, error) {

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, status, completed_at)
		VALUES (?, 'in_progress', NULL)
		ON CONFLICT (session_id) DO UPDATE SET
			status = 'in_progress',
			completed_at = NULL`, id,
	)
	if err != nil {
		return review.SessionInfo{},
			storageErr("failed to activate session", err)
	}

	info, err := s.getSession(ctx, id)
	if err != nil {
		return review.SessionInfo{},
			storageErr("failed to read session", err)
	}

	return info, nil
}

// MarkCompleted implements SessionStore.
func (s *SQLStore) MarkCompleted(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = 'completed', completed_at = CURRENT_TIMESTAMP
		WHERE session_id = ?`, id,
	)
	if err != nil {
		return storageErr("failed to mark session completed", err)
	}

	return nil
}

// MarkFailed implements SessionStore.
func (s *SQLStore) MarkFailed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = 'failed', completed_at = CURRENT_TIMESTAMP
		WHERE session_id = ?`, id,
	)
	if err != nil {
		return storageErr("failed to mark session failed", err)
	}

	return nil
}

// Lookup implements SessionStore.
func (s *SQLStore) Lookup(ctx context.Context,
	id string) (fn.Option[review.SessionInfo], error) {

	info, err := s.getSession(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fn.None[review.SessionInfo](), nil

	case err != nil:
		return fn.None[review.SessionInfo](),
			storageErr("failed to look up session", err)
	}

	return fn.Some(info), nil
}

// Save implements ReviewLog.
func (s *SQLStore) Save(ctx context.Context,
	params CreateLogParams) (review.LogEntry, error) {

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews
			(session_id, type, verdict, summary, findings_json)
		VALUES (?, ?, ?, ?, ?)`,
		params.SessionID, string(params.Type), params.Verdict,
		params.Summary, params.FindingsJSON,
	)
	if err != nil {
		return review.LogEntry{},
			storageErr("failed to save review", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return review.LogEntry{},
			storageErr("failed to read review id", err)
	}

	entry, err := s.getEntry(ctx, id)
	if err != nil {
		return review.LogEntry{},
			storageErr("failed to read review", err)
	}

	return entry, nil
}

// getEntry fetches one review log entry by id.
func (s *SQLStore) getEntry(ctx context.Context,
	id int64) (review.LogEntry, error) {

	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, type, verdict, summary, findings_json,
			timestamp
		FROM reviews WHERE id = ?`, id,
	)

	return scanEntry(row.Scan)
}

// scanEntry reads one reviews row via the given scan function.
func scanEntry(scan func(...any) error) (review.LogEntry, error) {
	var (
		entry review.LogEntry
		kind  string
	)

	err := scan(
		&entry.ID, &entry.SessionID, &kind, &entry.Verdict,
		&entry.Summary, &entry.Findings, &entry.Timestamp,
	)
	if err != nil {
		return review.LogEntry{}, err
	}

	entry.Type = review.Kind(kind)

	return entry, nil
}

// queryEntries runs a reviews query and collects the rows.
func (s *SQLStore) queryEntries(ctx context.Context, query string,
	args ...any) ([]review.LogEntry, error) {

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]review.LogEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// BySession implements ReviewLog.
func (s *SQLStore) BySession(ctx context.Context,
	id string) ([]review.LogEntry, error) {

	entries, err := s.queryEntries(ctx, `
		SELECT id, session_id, type, verdict, summary, findings_json,
			timestamp
		FROM reviews WHERE session_id = ? ORDER BY id ASC`, id,
	)
	if err != nil {
		return nil, storageErr("failed to list session reviews", err)
	}

	return entries, nil
}

// Recent implements ReviewLog.
func (s *SQLStore) Recent(ctx context.Context,
	n int) ([]review.LogEntry, error) {

	entries, err := s.queryEntries(ctx, `
		SELECT id, session_id, type, verdict, summary, findings_json,
			timestamp
		FROM reviews ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, storageErr("failed to list recent reviews", err)
	}

	return entries, nil
}

// A compile-time assertion that SQLStore implements Storage.
var _ Storage = (*SQLStore)(nil)
