// Package mcp exposes the review bridge over the MCP tool-call protocol on
// stdio. Five tools are registered: the three review kinds plus session
// status and history.
package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/AmirShayegh/codex-claude-bridge/internal/bridge"
)

// ServerName is the implementation name advertised during the MCP
// handshake.
const ServerName = "reviewbridge"

// Server wraps the MCP server with the review handler set.
type Server struct {
	server *mcp.Server
	svc    *bridge.Service
	log    *slog.Logger
}

// NewServer creates a new MCP server with all review tools registered.
func NewServer(svc *bridge.Service, version string,
	log *slog.Logger) *Server {

	if log == nil {
		log = slog.Default()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}, nil)

	s := &Server{
		server: mcpServer,
		svc:    svc,
		log:    log,
	}

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// registerTools registers the five review tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "review_plan",
		Description: "Review an implementation plan before any " +
			"code is written",
	}, s.handleReviewPlan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "review_code",
		Description: "Review a unified diff of code changes",
	}, s.handleReviewCode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "review_precommit",
		Description: "Check the staged diff for commit blockers " +
			"before committing",
	}, s.handleReviewPrecommit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "review_status",
		Description: "Report the status of a review session",
	}, s.handleReviewStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "review_history",
		Description: "List past reviews, by session or most recent",
	}, s.handleReviewHistory)
}
