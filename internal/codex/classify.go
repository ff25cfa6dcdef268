package codex

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// quotedNameRe extracts a quoted model name from an upstream error message,
// e.g. `The model "gpt-6" is not supported`.
var quotedNameRe = regexp.MustCompile("[\"'`]([^\"'`]+)[\"'`]")

// isCancellation reports whether err looks like an aborted request. The SDK
// does not surface timeouts as a distinct error shape, so detection is by
// name and message.
func isCancellation(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {

		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "aborterror") ||
		strings.Contains(msg, "aborted")
}

// classify maps a vendor error onto the closed bridge taxonomy by
// case-insensitive substring matching. Cancellation-shaped errors must be
// handled by the caller before classification; timeouts never reach here.
func classify(err error, configModel string) *review.Error {
	var be *review.Error
	if errors.As(err, &be) {
		return be
	}

	raw := err.Error()
	msg := strings.ToLower(raw)

	switch {
	case strings.Contains(msg, "api_key") ||
		strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "401"):

		return review.E(review.CodeAuthError,
			"missing or invalid credential: %s", raw)

	case strings.Contains(msg, "model") &&
		(strings.Contains(msg, "not supported") ||
			strings.Contains(msg, "not found")):

		name := configModel
		if m := quotedNameRe.FindStringSubmatch(raw); m != nil {
			name = m[1]
		}
		return review.E(review.CodeModelError,
			"model %q is not supported", name)

	case strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "rate limit"):

		return review.E(review.CodeRateLimited,
			"upstream rate limit: %s", raw)

	case strings.Contains(msg, "fetch failed") ||
		strings.Contains(msg, "econnrefused") ||
		strings.Contains(msg, "enotfound"):

		return review.E(review.CodeNetworkError,
			"network failure: %s", raw)

	default:
		return review.E(review.CodeUnknown, "%s", raw)
	}
}
