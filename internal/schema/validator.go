package schema

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// InvalidResponseError marks a model response that failed to parse or
// validate. It is a recoverable class: the client retries the same prompt
// once before giving up with CODEX_PARSE_ERROR. Transport failures never
// use this type.
type InvalidResponseError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidResponseError) Error() string {
	return e.Reason
}

// invalidf constructs an InvalidResponseError with a formatted reason.
func invalidf(format string, args ...any) error {
	return &InvalidResponseError{Reason: fmt.Sprintf(format, args...)}
}

// decode parses raw into dst after the validation pass. Malformed JSON is
// the canonical recoverable failure.
func decode(raw []byte, dst any) error {
	if !gjson.ValidBytes(raw) {
		return invalidf("malformed JSON in response")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return invalidf("malformed JSON in response: %v", err)
	}
	return nil
}

// validateAgainst runs the resolved schema over the decoded JSON value.
func validateAgainst(kind review.Kind, raw []byte) error {
	resolved, err := ForKind(kind).Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve %s schema: %w", kind, err)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return invalidf("malformed JSON in response")
	}
	if err := resolved.Validate(value); err != nil {
		return invalidf("response violates %s schema: %v", kind, err)
	}
	return nil
}

// checkFindings applies the constraints the schema cannot express: positive
// line numbers and the nil pairing between file and line anchors.
func checkFindings(findings []review.Finding) error {
	for i, f := range findings {
		if f.Line != nil && *f.Line <= 0 {
			return invalidf(
				"finding %d: line must be positive, got %d",
				i, *f.Line,
			)
		}
	}
	return nil
}

// ValidatePlan narrows raw model output to a PlanResult. SessionID is left
// empty; the client fills it in from the thread.
func ValidatePlan(raw []byte) (review.PlanResult, error) {
	if err := validateAgainst(review.KindPlan, raw); err != nil {
		return review.PlanResult{}, err
	}

	var out struct {
		Verdict  review.PlanVerdict `json:"verdict"`
		Summary  string             `json:"summary"`
		Findings []review.Finding   `json:"findings"`
	}
	if err := decode(raw, &out); err != nil {
		return review.PlanResult{}, err
	}
	if err := checkFindings(out.Findings); err != nil {
		return review.PlanResult{}, err
	}

	return review.PlanResult{
		Verdict:  out.Verdict,
		Summary:  out.Summary,
		Findings: out.Findings,
	}, nil
}

// ValidateCode narrows raw model output to a CodeResult.
func ValidateCode(raw []byte) (review.CodeResult, error) {
	if err := validateAgainst(review.KindCode, raw); err != nil {
		return review.CodeResult{}, err
	}

	var out struct {
		Verdict  review.CodeVerdict `json:"verdict"`
		Summary  string             `json:"summary"`
		Findings []review.Finding   `json:"findings"`
	}
	if err := decode(raw, &out); err != nil {
		return review.CodeResult{}, err
	}
	if err := checkFindings(out.Findings); err != nil {
		return review.CodeResult{}, err
	}

	return review.CodeResult{
		Verdict:  out.Verdict,
		Summary:  out.Summary,
		Findings: out.Findings,
	}, nil
}

// ValidatePrecommit narrows raw model output to a PrecommitResult.
func ValidatePrecommit(raw []byte) (review.PrecommitResult, error) {
	if err := validateAgainst(review.KindPrecommit, raw); err != nil {
		return review.PrecommitResult{}, err
	}

	var out struct {
		ReadyToCommit bool     `json:"ready_to_commit"`
		Blockers      []string `json:"blockers"`
		Warnings      []string `json:"warnings"`
	}
	if err := decode(raw, &out); err != nil {
		return review.PrecommitResult{}, err
	}

	if out.Blockers == nil {
		out.Blockers = []string{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}

	return review.PrecommitResult{
		ReadyToCommit: out.ReadyToCommit,
		Blockers:      out.Blockers,
		Warnings:      out.Warnings,
	}, nil
}
