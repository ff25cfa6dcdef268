package codex

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// TestIsCancellation exercises the cancellation detector over both real
// context errors and name-shaped SDK failures.
func TestIsCancellation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err  error
		want bool
	}{
		{context.DeadlineExceeded, true},
		{context.Canceled, true},
		{fmt.Errorf("run: %w", context.DeadlineExceeded), true},
		{errors.New("AbortError: the operation was aborted"), true},
		{errors.New("request aborted by client"), true},
		{errors.New("connection refused"), false},
		{errors.New("401 unauthorized"), false},
	}

	for _, tc := range testCases {
		require.Equal(
			t, tc.want, isCancellation(tc.err), "err=%v", tc.err,
		)
	}
}

// TestClassify exercises the substring taxonomy.
func TestClassify(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		code review.Code
	}{
		{
			name: "missing api key",
			err:  errors.New("no API_KEY found in environment"),
			code: review.CodeAuthError,
		},
		{
			name: "401",
			err:  errors.New("401 Unauthorized"),
			code: review.CodeAuthError,
		},
		{
			name: "unsupported model",
			err:  errors.New(`the model "gpt-6" is not supported`),
			code: review.CodeModelError,
		},
		{
			name: "rate limit",
			err:  errors.New("429 Too Many Requests"),
			code: review.CodeRateLimited,
		},
		{
			name: "rate limit by name",
			err:  errors.New("rate_limit_exceeded"),
			code: review.CodeRateLimited,
		},
		{
			name: "network",
			err:  errors.New("fetch failed: ECONNREFUSED"),
			code: review.CodeNetworkError,
		},
		{
			name: "dns",
			err:  errors.New("getaddrinfo ENOTFOUND api.example"),
			code: review.CodeNetworkError,
		},
		{
			name: "fallback",
			err:  errors.New("something exploded"),
			code: review.CodeUnknown,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := classify(tc.err, "gpt-5-codex")
			require.Equal(t, tc.code, got.Code)
		})
	}
}

// TestClassifyModelName covers model-name extraction from the upstream
// message, with the configured model as the fallback.
func TestClassifyModelName(t *testing.T) {
	t.Parallel()

	got := classify(
		errors.New(`the model "gpt-6" is not supported`), "gpt-5-codex",
	)
	require.Equal(t, `MODEL_ERROR: model "gpt-6" is not supported`,
		got.Error())

	got = classify(
		errors.New("model not supported by this account"),
		"gpt-5-codex",
	)
	require.Equal(t,
		`MODEL_ERROR: model "gpt-5-codex" is not supported`,
		got.Error(),
	)
}

// TestClassifyPreservesTaxonomyErrors covers pass-through of errors that
// already carry a bridge code.
func TestClassifyPreservesTaxonomyErrors(t *testing.T) {
	t.Parallel()

	in := review.E(review.CodeSessionNotFound, "no thread %q", "abc")
	got := classify(fmt.Errorf("resume: %w", in), "gpt-5-codex")

	require.Equal(t, review.CodeSessionNotFound, got.Code)
}

// TestClassifyUnknownPreservesMessage covers the raw-message guarantee for
// the fallback code.
func TestClassifyUnknownPreservesMessage(t *testing.T) {
	t.Parallel()

	got := classify(errors.New("something exploded"), "gpt-5-codex")
	require.Equal(t, "UNKNOWN_ERROR: something exploded", got.Error())
}
