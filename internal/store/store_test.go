package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// newTestStores builds one instance of each Storage implementation so every
// behavior is checked against both.
func newTestStores(t *testing.T) map[string]Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "reviews.db")
	sqlStore, err := Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, sqlStore.Close())
	})

	return map[string]Storage{
		"sql":  sqlStore,
		"mock": NewMockStore(),
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	t.Parallel()

	for name, s := range newTestStores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first, err := s.GetOrCreate(ctx, "session_1")
			require.NoError(t, err)
			require.Equal(t, "session_1", first.SessionID)
			require.Equal(t, review.StatusInProgress, first.Status)
			require.Nil(t, first.CompletedAt)

			second, err := s.GetOrCreate(ctx, "session_1")
			require.NoError(t, err)
			require.Equal(t, first.SessionID, second.SessionID)
			require.Equal(t, first.CreatedAt, second.CreatedAt)
		})
	}
}

func TestActivateReturnsCompletedSessionToInProgress(t *testing.T) {
	t.Parallel()

	for name, s := range newTestStores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := s.GetOrCreate(ctx, "session_1")
			require.NoError(t, err)

			require.NoError(t, s.MarkCompleted(ctx, "session_1"))

			done, err := s.Lookup(ctx, "session_1")
			require.NoError(t, err)
			require.True(t, done.IsSome())
			info := done.UnwrapOrFail(t)
			require.Equal(t, review.StatusCompleted, info.Status)
			require.NotNil(t, info.CompletedAt)

			reactivated, err := s.Activate(ctx, "session_1")
			require.NoError(t, err)
			require.Equal(t,
				review.StatusInProgress, reactivated.Status,
			)
			require.Nil(t, reactivated.CompletedAt)
			require.Equal(t,
				created.CreatedAt, reactivated.CreatedAt,
			)
		})
	}
}

func TestActivateCreatesMissingSession(t *testing.T) {
	t.Parallel()

	for name, s := range newTestStores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			info, err := s.Activate(ctx, "fresh")
			require.NoError(t, err)
			require.Equal(t, review.StatusInProgress, info.Status)
			require.Nil(t, info.CompletedAt)
		})
	}
}

func TestTerminalMarksAreNoOpsOnMissingSessions(t *testing.T) {
	t.Parallel()

	for name, s := range newTestStores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.MarkCompleted(ctx, "missing"))
			require.NoError(t, s.MarkFailed(ctx, "missing"))

			absent, err := s.Lookup(ctx, "missing")
			require.NoError(t, err)
			require.True(t, absent.IsNone())
		})
	}
}

func TestMarkFailed(t *testing.T) {
	t.Parallel()

	for name, s := range newTestStores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.GetOrCreate(ctx, "session_1")
			require.NoError(t, err)

			require.NoError(t, s.MarkFailed(ctx, "session_1"))

			found, err := s.Lookup(ctx, "session_1")
			require.NoError(t, err)
			info := found.UnwrapOrFail(t)
			require.Equal(t, review.StatusFailed, info.Status)
			require.NotNil(t, info.CompletedAt)
		})
	}
}

func TestReviewLogOrdering(t *testing.T) {
	t.Parallel()

	for name, s := range newTestStores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				session := "session_a"
				if i%2 == 1 {
					session = "session_b"
				}

				_, err := s.Save(ctx, CreateLogParams{
					SessionID: session,
					Type:      review.KindCode,
					Verdict:   "approve",
					Summary: fmt.Sprintf(
						"review %d", i,
					),
					FindingsJSON: "[]",
				})
				require.NoError(t, err)
			}

			// by_session is oldest first and scoped to the
			// session.
			entries, err := s.BySession(ctx, "session_a")
			require.NoError(t, err)
			require.Len(t, entries, 3)
			require.Equal(t, "review 0", entries[0].Summary)
			require.Equal(t, "review 4", entries[2].Summary)

			// recent is newest first with the limit applied.
			recent, err := s.Recent(ctx, 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			require.Equal(t, "review 4", recent[0].Summary)
			require.Equal(t, "review 3", recent[1].Summary)
		})
	}
}

func TestReviewLogUnknownSessionIsEmpty(t *testing.T) {
	t.Parallel()

	for name, s := range newTestStores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			entries, err := s.BySession(
				context.Background(), "nope",
			)
			require.NoError(t, err)
			require.Empty(t, entries)
		})
	}
}

func TestSaveAssignsIDsAndTimestamps(t *testing.T) {
	t.Parallel()

	for name, s := range newTestStores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first, err := s.Save(ctx, CreateLogParams{
				SessionID:    "session_1",
				Type:         review.KindPlan,
				Verdict:      "approve",
				Summary:      "fine",
				FindingsJSON: "[]",
			})
			require.NoError(t, err)

			second, err := s.Save(ctx, CreateLogParams{
				SessionID:    "session_1",
				Type:         review.KindPlan,
				Verdict:      "revise",
				Summary:      "less fine",
				FindingsJSON: "[]",
			})
			require.NoError(t, err)

			require.Greater(t, second.ID, first.ID)
			require.False(t, first.Timestamp.IsZero())
			require.Equal(t, review.KindPlan, first.Type)
		})
	}
}
