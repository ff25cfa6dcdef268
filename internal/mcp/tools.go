package mcp

import (
	"context"
	"encoding/json"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/AmirShayegh/codex-claude-bridge/internal/bridge"
	"github.com/AmirShayegh/codex-claude-bridge/internal/codex"
	"github.com/AmirShayegh/codex-claude-bridge/internal/gitdiff"
	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// textResult serializes v as a JSON string inside the text-content
// envelope.
func textResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}
}

// errorResult renders err as a "CODE: message" text envelope flagged as an
// error.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: review.AsBridgeError(err).Error(),
			},
		},
		IsError: true,
	}
}

// optString lifts a possibly-empty string into an Option.
func optString(s string) fn.Option[string] {
	if s == "" {
		return fn.None[string]()
	}
	return fn.Some(s)
}

// ReviewPlanArgs are the arguments for the review_plan tool.
type ReviewPlanArgs struct {
	// Plan is the implementation plan text to review.
	Plan string `json:"plan" jsonschema:"The implementation plan to review"`

	// Context is optional background for the reviewer.
	Context string `json:"context,omitempty" jsonschema:"Optional background for the reviewer"`

	// Focus lists areas the review should concentrate on.
	Focus []string `json:"focus,omitempty" jsonschema:"Areas the review should concentrate on"`

	// Depth is quick or thorough.
	Depth string `json:"depth,omitempty" jsonschema:"Review depth: quick or thorough"`

	// SessionID resumes an existing review session.
	SessionID string `json:"session_id,omitempty" jsonschema:"Session ID of a previous review to resume"`
}

func (s *Server) handleReviewPlan(ctx context.Context,
	req *mcp.CallToolRequest,
	args ReviewPlanArgs) (*mcp.CallToolResult, any, error) {

	result, err := s.svc.Plan(ctx, codex.PlanReview{
		Plan:      args.Plan,
		Context:   args.Context,
		Focus:     args.Focus,
		Depth:     review.Depth(args.Depth),
		SessionID: optString(args.SessionID),
	})
	if err != nil {
		return errorResult(err), nil, nil
	}

	return textResult(result), nil, nil
}

// ReviewCodeArgs are the arguments for the review_code tool.
type ReviewCodeArgs struct {
	// Diff is the unified diff to review.
	Diff string `json:"diff" jsonschema:"The unified diff to review"`

	// Context is optional background for the reviewer.
	Context string `json:"context,omitempty" jsonschema:"Optional background for the reviewer"`

	// Criteria lists review criteria overriding the configured
	// defaults.
	Criteria []string `json:"criteria,omitempty" jsonschema:"Review criteria overriding the configured defaults"`

	// SessionID resumes an existing review session.
	SessionID string `json:"session_id,omitempty" jsonschema:"Session ID of a previous review to resume"`
}

func (s *Server) handleReviewCode(ctx context.Context,
	req *mcp.CallToolRequest,
	args ReviewCodeArgs) (*mcp.CallToolResult, any, error) {

	result, err := s.svc.Code(ctx, codex.CodeReview{
		Diff:      args.Diff,
		Context:   args.Context,
		Criteria:  args.Criteria,
		SessionID: optString(args.SessionID),
	})
	if err != nil {
		return errorResult(err), nil, nil
	}

	return textResult(result), nil, nil
}

// ReviewPrecommitArgs are the arguments for the review_precommit tool.
type ReviewPrecommitArgs struct {
	// AutoDiff reads the staged diff from git. Defaults to true.
	AutoDiff *bool `json:"auto_diff,omitempty" jsonschema:"Read the staged diff from git,default=true"`

	// Diff supplies the diff explicitly instead of reading it from git.
	Diff *string `json:"diff,omitempty" jsonschema:"Explicit diff to check instead of the staged changes"`

	// Checklist lists extra commit checks.
	Checklist []string `json:"checklist,omitempty" jsonschema:"Extra commit checks"`

	// SessionID resumes an existing review session.
	SessionID string `json:"session_id,omitempty" jsonschema:"Session ID of a previous review to resume"`
}

func (s *Server) handleReviewPrecommit(ctx context.Context,
	req *mcp.CallToolRequest,
	args ReviewPrecommitArgs) (*mcp.CallToolResult, any, error) {

	autoDiff := true
	if args.AutoDiff != nil {
		autoDiff = *args.AutoDiff
	}

	sessionID := optString(args.SessionID)

	result, err := s.svc.Precommit(ctx, bridge.PrecommitArgs{
		Diff:      args.Diff,
		AutoDiff:  autoDiff,
		Checklist: args.Checklist,
		SessionID: sessionID,
	})
	switch {
	// An empty staged diff is not an error on the tool surface: the
	// caller asked "is this safe to commit" and the answer is that
	// there is nothing to commit.
	case err != nil && gitdiff.IsNoStagedChanges(err):
		return textResult(
			bridge.NoStagedChangesResult(sessionID),
		), nil, nil

	case err != nil:
		return errorResult(err), nil, nil
	}

	return textResult(result), nil, nil
}

// ReviewStatusArgs are the arguments for the review_status tool.
type ReviewStatusArgs struct {
	// SessionID identifies the session to report on.
	SessionID string `json:"session_id" jsonschema:"Session ID to report on"`
}

func (s *Server) handleReviewStatus(ctx context.Context,
	req *mcp.CallToolRequest,
	args ReviewStatusArgs) (*mcp.CallToolResult, any, error) {

	result, err := s.svc.Status(ctx, args.SessionID)
	if err != nil {
		return errorResult(err), nil, nil
	}

	return textResult(result), nil, nil
}

// ReviewHistoryArgs are the arguments for the review_history tool.
type ReviewHistoryArgs struct {
	// SessionID scopes the history to one session.
	SessionID string `json:"session_id,omitempty" jsonschema:"Session ID to list reviews for"`

	// LastN bounds the number of recent entries when no session is
	// given.
	LastN *int `json:"last_n,omitempty" jsonschema:"Number of recent reviews to return,default=10"`
}

func (s *Server) handleReviewHistory(ctx context.Context,
	req *mcp.CallToolRequest,
	args ReviewHistoryArgs) (*mcp.CallToolResult, any, error) {

	lastN := fn.None[int]()
	if args.LastN != nil {
		lastN = fn.Some(*args.LastN)
	}

	result, err := s.svc.History(
		ctx, optString(args.SessionID), lastN,
	)
	if err != nil {
		return errorResult(err), nil, nil
	}

	return textResult(result), nil, nil
}
