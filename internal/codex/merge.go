package codex

import (
	"strings"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// findingKey identifies a finding for deduplication. Only findings anchored
// to both a file and a line carry a key.
type findingKey struct {
	file     string
	line     int
	category string
}

// mergeCodeResults folds per-chunk code results into one: worst verdict
// wins, summaries join with a single space, and anchored findings dedup by
// (file, line, category) keeping the highest severity. The merged order is
// deduped findings first, positioned where their surviving write landed,
// then unanchored findings in arrival order.
func mergeCodeResults(results []review.CodeResult) review.CodeResult {
	verdict := review.CodeApprove
	summaries := make([]string, 0, len(results))

	var (
		keyed    []review.Finding
		keyedIdx = make(map[findingKey]int)
		unkeyed  []review.Finding
	)

	for _, res := range results {
		verdict = review.WorseCodeVerdict(verdict, res.Verdict)
		if res.Summary != "" {
			summaries = append(summaries, res.Summary)
		}

		for _, f := range res.Findings {
			if f.File == nil || f.Line == nil {
				unkeyed = append(unkeyed, f)
				continue
			}

			key := findingKey{
				file:     *f.File,
				line:     *f.Line,
				category: f.Category,
			}

			idx, seen := keyedIdx[key]
			if !seen {
				keyedIdx[key] = len(keyed)
				keyed = append(keyed, f)
				continue
			}

			// A higher-severity duplicate replaces the earlier
			// finding and moves to the back, so order reflects
			// the last write that won.
			prev := review.CodeSeverity(keyed[idx].Severity)
			next := review.CodeSeverity(f.Severity)
			if review.HigherCodeSeverity(prev, next) != next ||
				next == prev {

				continue
			}

			keyed = append(keyed[:idx], keyed[idx+1:]...)
			for k, i := range keyedIdx {
				if i > idx {
					keyedIdx[k] = i - 1
				}
			}
			keyedIdx[key] = len(keyed)
			keyed = append(keyed, f)
		}
	}

	merged := make([]review.Finding, 0, len(keyed)+len(unkeyed))
	merged = append(merged, keyed...)
	merged = append(merged, unkeyed...)

	n := len(results)

	return review.CodeResult{
		Verdict:        verdict,
		Summary:        strings.Join(summaries, " "),
		Findings:       merged,
		SessionID:      results[n-1].SessionID,
		ChunksReviewed: &n,
	}
}

// mergePrecommitResults folds per-chunk precommit results: ready only when
// every chunk is ready, blockers and warnings concatenated without dedup.
func mergePrecommitResults(
	results []review.PrecommitResult) review.PrecommitResult {

	merged := review.PrecommitResult{
		ReadyToCommit: true,
		Blockers:      []string{},
		Warnings:      []string{},
	}

	for _, res := range results {
		merged.ReadyToCommit = merged.ReadyToCommit &&
			res.ReadyToCommit
		merged.Blockers = append(merged.Blockers, res.Blockers...)
		merged.Warnings = append(merged.Warnings, res.Warnings...)
	}

	n := len(results)
	merged.SessionID = results[n-1].SessionID
	merged.ChunksReviewed = &n

	return merged
}
