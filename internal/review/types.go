package review

import "time"

// Kind indicates the kind of review being performed. Each kind has its own
// result shape and its own severity vocabulary.
type Kind string

const (
	KindPlan      Kind = "plan"
	KindCode      Kind = "code"
	KindPrecommit Kind = "precommit"
)

// PlanVerdict is the outcome of a plan review.
type PlanVerdict string

const (
	PlanApprove PlanVerdict = "approve"
	PlanRevise  PlanVerdict = "revise"
	PlanReject  PlanVerdict = "reject"
)

// CodeVerdict is the outcome of a code review.
type CodeVerdict string

const (
	CodeApprove        CodeVerdict = "approve"
	CodeRequestChanges CodeVerdict = "request_changes"
	CodeReject         CodeVerdict = "reject"
)

// codeVerdictRank orders code verdicts from best to worst. The multi-chunk
// merger keeps the worst verdict across chunks.
var codeVerdictRank = map[CodeVerdict]int{
	CodeApprove:        0,
	CodeRequestChanges: 1,
	CodeReject:         2,
}

// WorseCodeVerdict returns the worse of the two verdicts under the order
// approve < request_changes < reject.
func WorseCodeVerdict(a, b CodeVerdict) CodeVerdict {
	if codeVerdictRank[b] > codeVerdictRank[a] {
		return b
	}
	return a
}

// PlanSeverity is the severity vocabulary for plan review findings.
type PlanSeverity string

const (
	PlanSevCritical   PlanSeverity = "critical"
	PlanSevMajor      PlanSeverity = "major"
	PlanSevMinor      PlanSeverity = "minor"
	PlanSevSuggestion PlanSeverity = "suggestion"
)

// PlanSeverities lists the allowed plan finding severities.
var PlanSeverities = []PlanSeverity{
	PlanSevCritical, PlanSevMajor, PlanSevMinor, PlanSevSuggestion,
}

// CodeSeverity is the severity vocabulary for code review findings.
type CodeSeverity string

const (
	CodeSevCritical CodeSeverity = "critical"
	CodeSevMajor    CodeSeverity = "major"
	CodeSevMinor    CodeSeverity = "minor"
	CodeSevNitpick  CodeSeverity = "nitpick"
)

// CodeSeverities lists the allowed code finding severities.
var CodeSeverities = []CodeSeverity{
	CodeSevCritical, CodeSevMajor, CodeSevMinor, CodeSevNitpick,
}

// codeSeverityRank orders code severities from most to least severe. Used by
// the finding deduplicator, which keeps the highest severity among
// duplicates.
var codeSeverityRank = map[CodeSeverity]int{
	CodeSevCritical: 3,
	CodeSevMajor:    2,
	CodeSevMinor:    1,
	CodeSevNitpick:  0,
}

// HigherCodeSeverity returns the more severe of the two severities under the
// order critical > major > minor > nitpick.
func HigherCodeSeverity(a, b CodeSeverity) CodeSeverity {
	if codeSeverityRank[b] > codeSeverityRank[a] {
		return b
	}
	return a
}

// Depth controls how deep a plan review digs.
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthThorough Depth = "thorough"
)

// Finding is a single issue reported by the reviewer. Severity carries the
// per-kind vocabulary as a raw string so the same shape serves both plan and
// code reviews; the schema validator enforces the per-kind enum before a
// Finding is ever constructed.
type Finding struct {
	// Severity is one of the per-kind severity values.
	Severity string `json:"severity"`

	// Category groups the finding (e.g. "bug", "security", "style").
	Category string `json:"category"`

	// Description is the human-readable explanation.
	Description string `json:"description"`

	// File is the affected file path, when the finding is anchored to one.
	File *string `json:"file"`

	// Line is the affected line, when known. Positive when present.
	Line *int `json:"line"`

	// Suggestion is an optional suggested fix.
	Suggestion *string `json:"suggestion"`
}

// PlanResult is the structured outcome of a plan review.
type PlanResult struct {
	Verdict   PlanVerdict `json:"verdict"`
	Summary   string      `json:"summary"`
	Findings  []Finding   `json:"findings"`
	SessionID string      `json:"session_id"`
}

// CodeResult is the structured outcome of a code review. ChunksReviewed is
// only present for multi-chunk reviews.
type CodeResult struct {
	Verdict        CodeVerdict `json:"verdict"`
	Summary        string      `json:"summary"`
	Findings       []Finding   `json:"findings"`
	SessionID      string      `json:"session_id"`
	ChunksReviewed *int        `json:"chunks_reviewed,omitempty"`
}

// PrecommitResult is the structured outcome of a precommit check. Blockers
// are issues at or above the configured block-on severities; everything else
// lands in Warnings.
type PrecommitResult struct {
	ReadyToCommit  bool     `json:"ready_to_commit"`
	Blockers       []string `json:"blockers"`
	Warnings       []string `json:"warnings"`
	SessionID      string   `json:"session_id"`
	ChunksReviewed *int     `json:"chunks_reviewed,omitempty"`
}

// SessionStatus is the lifecycle state of a persisted session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// SessionInfo is a persisted session row. CompletedAt is nil exactly while
// the session is in progress.
type SessionInfo struct {
	SessionID   string
	Status      SessionStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// LogEntry is an append-only record of one completed review.
type LogEntry struct {
	ID        int64
	SessionID string
	Type      Kind
	Verdict   string
	Summary   string
	Findings  string // JSON-encoded findings payload.
	Timestamp time.Time
}
