// Package chunker splits unified diffs into size-bounded chunks. Splits
// happen at file boundaries first and hunk boundaries second; a single hunk
// is never split further, so one chunk can exceed the budget when a lone
// hunk does.
package chunker

import (
	"regexp"
	"strings"
)

var (
	// fileHeaderRe matches the start of a per-file section in a unified
	// diff.
	fileHeaderRe = regexp.MustCompile(`(?m)^diff --git `)

	// hunkHeaderRe matches the start of a hunk within a file section.
	hunkHeaderRe = regexp.MustCompile(`(?m)^@@ `)
)

// EstimateTokens returns a coarse token estimate for s: ceil(len(s)/4),
// with the empty string estimating to zero. Deliberately rough; callers
// budget headroom for prompt scaffolding on top of this.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + 3) / 4
}

// Chunk splits diff into chunks whose estimated token count stays within
// maxTokens. Joining the returned chunks with "\n" reconstructs the input
// whenever no file needed hunk-level splitting (hunk splits repeat the file
// header on every chunk so each stands alone as a valid diff).
//
// Empty or whitespace-only input yields no chunks. A non-positive budget
// disables splitting and returns the input as a single chunk.
func Chunk(diff string, maxTokens int) []string {
	if strings.TrimSpace(diff) == "" {
		return nil
	}
	if maxTokens <= 0 {
		return []string{diff}
	}

	// First pass: cut the diff into per-file pieces, splitting oversized
	// multi-hunk files at hunk boundaries.
	var pieces []string
	for _, section := range splitSections(diff, fileHeaderRe) {
		if EstimateTokens(section) <= maxTokens {
			pieces = append(pieces, section)
			continue
		}
		pieces = append(pieces, splitFile(section, maxTokens)...)
	}

	// Second pass: greedily bin-pack pieces into output chunks.
	return packPieces(pieces, maxTokens)
}

// splitSections cuts s at every boundary matched by re, dropping the single
// newline that separates consecutive sections so the caller can rejoin
// sections with "\n" and reconstruct s exactly. Text before the first
// boundary (if any) becomes the first section.
func splitSections(s string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return []string{s}
	}

	var sections []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			// Drop the newline separating this section from the
			// previous one; join("\n", ...) restores it.
			end := loc[0]
			if end > prev && s[end-1] == '\n' {
				end--
			}
			sections = append(sections, s[prev:end])
		} else if loc[0] == 0 {
			continue
		}
		prev = loc[0]
	}
	sections = append(sections, s[prev:])

	return sections
}

// splitFile splits a single oversized file section at hunk boundaries. Each
// resulting piece repeats the file header (the diff --git/---/+++ lines)
// followed by a subset of the hunks. Files without hunk markers (binary or
// rename diffs) and single-hunk files are returned whole.
func splitFile(section string, maxTokens int) []string {
	hunkLocs := hunkHeaderRe.FindAllStringIndex(section, -1)
	if len(hunkLocs) <= 1 {
		return []string{section}
	}

	headerEnd := hunkLocs[0][0]
	// The header keeps its trailing newline; hunks are appended directly.
	header := section[:headerEnd]

	// Cut the hunks apart, dropping inter-hunk newlines the same way
	// splitSections does.
	var hunks []string
	for i, loc := range hunkLocs {
		end := len(section)
		if i+1 < len(hunkLocs) {
			end = hunkLocs[i+1][0]
			if section[end-1] == '\n' {
				end--
			}
		}
		hunks = append(hunks, section[loc[0]:end])
	}

	var (
		pieces  []string
		current []string
		curLen  int // len(header + join("\n", current))
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		pieces = append(pieces, header+strings.Join(current, "\n"))
		current = nil
		curLen = 0
	}

	for _, hunk := range hunks {
		// Budget against the piece as it will actually be emitted,
		// join newlines included.
		if len(current) > 0 &&
			(curLen+1+len(hunk)+3)/4 > maxTokens {

			flush()
		}
		if len(current) == 0 {
			curLen = len(header) + len(hunk)
		} else {
			curLen += 1 + len(hunk)
		}
		// An oversized lone hunk ships as-is; hunks are atomic.
		current = append(current, hunk)
	}
	flush()

	return pieces
}

// packPieces greedily bins pieces into chunks, opening a new chunk whenever
// appending the next piece would push the current chunk past maxTokens.
func packPieces(pieces []string, maxTokens int) []string {
	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
		current.Reset()
	}

	for _, piece := range pieces {
		if current.Len() > 0 {
			combined := current.Len() + 1 + len(piece)
			if (combined+3)/4 > maxTokens {
				flush()
			}
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(piece)
	}
	flush()

	return chunks
}
