package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

const validPlanJSON = `{
	"verdict": "approve",
	"summary": "Plan looks solid",
	"findings": [{
		"severity": "minor",
		"category": "style",
		"description": "Consider renaming",
		"file": null,
		"line": null,
		"suggestion": null
	}]
}`

func TestValidatePlanHappyPath(t *testing.T) {
	t.Parallel()

	result, err := ValidatePlan([]byte(validPlanJSON))
	require.NoError(t, err)
	require.Equal(t, review.PlanApprove, result.Verdict)
	require.Equal(t, "Plan looks solid", result.Summary)
	require.Len(t, result.Findings, 1)
	require.Equal(t, "minor", result.Findings[0].Severity)
	require.Nil(t, result.Findings[0].File)
	require.Empty(t, result.SessionID)
}

func TestValidatePlanMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := ValidatePlan([]byte("not json {{{"))
	require.Error(t, err)

	var invalid *InvalidResponseError
	require.ErrorAs(t, err, &invalid)
	require.Contains(t, invalid.Reason, "malformed JSON")
}

func TestValidatePlanRejectsCodeSeverity(t *testing.T) {
	t.Parallel()

	// "nitpick" belongs to the code vocabulary, not plan.
	_, err := ValidatePlan([]byte(`{
		"verdict": "approve",
		"summary": "ok",
		"findings": [{
			"severity": "nitpick",
			"category": "style",
			"description": "x"
		}]
	}`))
	require.Error(t, err)

	var invalid *InvalidResponseError
	require.ErrorAs(t, err, &invalid)
}

func TestValidateCodeRejectsPlanSeverity(t *testing.T) {
	t.Parallel()

	// "suggestion" belongs to the plan vocabulary, not code.
	_, err := ValidateCode([]byte(`{
		"verdict": "approve",
		"summary": "ok",
		"findings": [{
			"severity": "suggestion",
			"category": "style",
			"description": "x",
			"file": "a.go",
			"line": 3
		}]
	}`))
	require.Error(t, err)
}

func TestValidateCodeHappyPath(t *testing.T) {
	t.Parallel()

	result, err := ValidateCode([]byte(`{
		"verdict": "request_changes",
		"summary": "Needs work",
		"findings": [{
			"severity": "critical",
			"category": "bug",
			"description": "nil deref",
			"file": "src/a.go",
			"line": 10,
			"suggestion": "check for nil"
		}]
	}`))
	require.NoError(t, err)
	require.Equal(t, review.CodeRequestChanges, result.Verdict)
	require.Len(t, result.Findings, 1)
	require.Equal(t, "src/a.go", *result.Findings[0].File)
	require.Equal(t, 10, *result.Findings[0].Line)
	require.Nil(t, result.ChunksReviewed)
}

func TestValidateCodeMissingVerdict(t *testing.T) {
	t.Parallel()

	_, err := ValidateCode([]byte(`{"summary": "ok", "findings": []}`))
	require.Error(t, err)

	var invalid *InvalidResponseError
	require.ErrorAs(t, err, &invalid)
}

func TestValidateCodeUnknownVerdict(t *testing.T) {
	t.Parallel()

	// "revise" is a plan verdict.
	_, err := ValidateCode([]byte(
		`{"verdict": "revise", "summary": "ok", "findings": []}`,
	))
	require.Error(t, err)
}

func TestValidatePrecommitHappyPath(t *testing.T) {
	t.Parallel()

	result, err := ValidatePrecommit([]byte(`{
		"ready_to_commit": false,
		"blockers": ["Missing error handling"],
		"warnings": []
	}`))
	require.NoError(t, err)
	require.False(t, result.ReadyToCommit)
	require.Equal(t, []string{"Missing error handling"}, result.Blockers)
	require.Empty(t, result.Warnings)
}

func TestValidatePrecommitWrongShape(t *testing.T) {
	t.Parallel()

	_, err := ValidatePrecommit([]byte(
		`{"verdict": "approve", "summary": "ok", "findings": []}`,
	))
	require.Error(t, err)
}

func TestValidateCodeNonPositiveLine(t *testing.T) {
	t.Parallel()

	_, err := ValidateCode([]byte(`{
		"verdict": "approve",
		"summary": "ok",
		"findings": [{
			"severity": "minor",
			"category": "bug",
			"description": "x",
			"file": "a.go",
			"line": 0
		}]
	}`))
	require.Error(t, err)
}
