// Package schema validates reviewer model output against the per-kind
// result shapes. The reviewer never emits session_id; that field is
// attached later by the client from the thread identity.
package schema

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// severityEnum converts a severity list into a schema enum.
func severityEnum[T ~string](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// findingSchema is the schema for a single finding, parameterized by the
// severity vocabulary of the review kind.
func findingSchema(severities []any) *jsonschema.Schema {
	var one float64 = 1
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"severity":    {Type: "string", Enum: severities},
			"category":    {Type: "string"},
			"description": {Type: "string"},
			"file":        {Types: []string{"string", "null"}},
			"line": {
				Types:   []string{"integer", "null"},
				Minimum: &one,
			},
			"suggestion": {Types: []string{"string", "null"}},
		},
		Required: []string{"severity", "category", "description"},
	}
}

// PlanSchema returns the output schema for plan reviews.
func PlanSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"verdict": {
				Type: "string",
				Enum: []any{"approve", "revise", "reject"},
			},
			"summary": {Type: "string"},
			"findings": {
				Type: "array",
				Items: findingSchema(
					severityEnum(review.PlanSeverities),
				),
			},
		},
		Required: []string{"verdict", "summary", "findings"},
	}
}

// CodeSchema returns the output schema for code reviews.
func CodeSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"verdict": {
				Type: "string",
				Enum: []any{
					"approve", "request_changes", "reject",
				},
			},
			"summary": {Type: "string"},
			"findings": {
				Type: "array",
				Items: findingSchema(
					severityEnum(review.CodeSeverities),
				),
			},
		},
		Required: []string{"verdict", "summary", "findings"},
	}
}

// PrecommitSchema returns the output schema for precommit reviews.
func PrecommitSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"ready_to_commit": {Type: "boolean"},
			"blockers": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"warnings": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
		},
		Required: []string{"ready_to_commit", "blockers", "warnings"},
	}
}

// ForKind returns the output schema for the given review kind.
func ForKind(kind review.Kind) *jsonschema.Schema {
	switch kind {
	case review.KindPlan:
		return PlanSchema()
	case review.KindCode:
		return CodeSchema()
	default:
		return PrecommitSchema()
	}
}
