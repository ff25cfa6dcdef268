package store

import (
	"context"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// MockStore provides an in-memory implementation of the Storage interface.
// It backs tests and the degraded mode the server falls into when the
// database cannot be opened. All data is protected by a mutex.
type MockStore struct {
	mu sync.RWMutex

	sessions map[string]review.SessionInfo
	entries  []review.LogEntry

	nextEntryID int64
}

// NewMockStore creates a new in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions:    make(map[string]review.SessionInfo),
		entries:     make([]review.LogEntry, 0),
		nextEntryID: 1,
	}
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// GetOrCreate implements SessionStore.
func (m *MockStore) GetOrCreate(_ context.Context,
	id string) (review.SessionInfo, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if info, ok := m.sessions[id]; ok {
		return info, nil
	}

	info := review.SessionInfo{
		SessionID: id,
		Status:    review.StatusInProgress,
		CreatedAt: time.Now().UTC(),
	}
	m.sessions[id] = info

	return info, nil
}

// Activate implements SessionStore.
func (m *MockStore) Activate(_ context.Context,
	id string) (review.SessionInfo, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.sessions[id]
	if !ok {
		info = review.SessionInfo{
			SessionID: id,
			CreatedAt: time.Now().UTC(),
		}
	}

	info.Status = review.StatusInProgress
	info.CompletedAt = nil
	m.sessions[id] = info

	return info, nil
}

// finish stamps a session with a terminal status. Unknown ids are a no-op.
func (m *MockStore) finish(id string, status review.SessionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.sessions[id]
	if !ok {
		return
	}

	now := time.Now().UTC()
	info.Status = status
	info.CompletedAt = &now
	m.sessions[id] = info
}

// MarkCompleted implements SessionStore.
func (m *MockStore) MarkCompleted(_ context.Context, id string) error {
	m.finish(id, review.StatusCompleted)
	return nil
}

// MarkFailed implements SessionStore.
func (m *MockStore) MarkFailed(_ context.Context, id string) error {
	m.finish(id, review.StatusFailed)
	return nil
}

// Lookup implements SessionStore.
func (m *MockStore) Lookup(_ context.Context,
	id string) (fn.Option[review.SessionInfo], error) {

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.sessions[id]
	if !ok {
		return fn.None[review.SessionInfo](), nil
	}

	return fn.Some(info), nil
}

// Save implements ReviewLog.
func (m *MockStore) Save(_ context.Context,
	params CreateLogParams) (review.LogEntry, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := review.LogEntry{
		ID:        m.nextEntryID,
		SessionID: params.SessionID,
		Type:      params.Type,
		Verdict:   params.Verdict,
		Summary:   params.Summary,
		Findings:  params.FindingsJSON,
		Timestamp: time.Now().UTC(),
	}
	m.nextEntryID++
	m.entries = append(m.entries, entry)

	return entry, nil
}

// BySession implements ReviewLog.
func (m *MockStore) BySession(_ context.Context,
	id string) ([]review.LogEntry, error) {

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]review.LogEntry, 0)
	for _, entry := range m.entries {
		if entry.SessionID == id {
			out = append(out, entry)
		}
	}

	return out, nil
}

// Recent implements ReviewLog.
func (m *MockStore) Recent(_ context.Context,
	n int) ([]review.LogEntry, error) {

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]review.LogEntry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.entries[i])
	}

	return out, nil
}

// A compile-time assertion that MockStore implements Storage.
var _ Storage = (*MockStore)(nil)
