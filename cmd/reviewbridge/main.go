package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/AmirShayegh/codex-claude-bridge/cmd/reviewbridge/commands"
	"github.com/AmirShayegh/codex-claude-bridge/internal/bridge"
	"github.com/AmirShayegh/codex-claude-bridge/internal/build"
	"github.com/AmirShayegh/codex-claude-bridge/internal/codex"
	"github.com/AmirShayegh/codex-claude-bridge/internal/config"
	"github.com/AmirShayegh/codex-claude-bridge/internal/gitdiff"
	mcpserver "github.com/AmirShayegh/codex-claude-bridge/internal/mcp"
	"github.com/AmirShayegh/codex-claude-bridge/internal/metrics"
	"github.com/AmirShayegh/codex-claude-bridge/internal/store"
)

func main() {
	// Any positional argument selects the CLI; a bare invocation starts
	// the stdio tool-call server. This keeps an unknown positional from
	// silently hanging a stdio server that nobody is speaking to.
	if wantsCLI(os.Args[1:]) {
		os.Exit(commands.Execute())
	}

	if err := runServer(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// wantsCLI reports whether the arguments carry a positional argument or an
// explicit help/version request.
func wantsCLI(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--help", "-h", "--version":
			return true
		}
		if !strings.HasPrefix(arg, "-") {
			return true
		}
	}
	return false
}

// runServer starts the MCP tool server on stdio.
func runServer() error {
	// A long-lived server keeps a rotating log file next to the database;
	// console records still go to stderr. A missing home dir just means
	// console-only logging.
	logDir, _ := build.DefaultLogDir()

	logs, err := build.NewLogManager(build.LogConfig{LogDir: logDir})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logs.Close()

	log := logs.Logger()

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	client, err := codex.NewSDKClient()
	if err != nil {
		return err
	}

	// A broken database degrades session tracking but never keeps the
	// server from starting.
	var storage store.Storage
	dbPath, err := store.DefaultDBPath()
	if err == nil {
		var sqlStore *store.SQLStore
		sqlStore, err = store.Open(dbPath, log)
		if err == nil {
			storage = sqlStore
			defer sqlStore.Close()
		}
	}
	if err != nil {
		log.Warn("Falling back to in-memory session store",
			"error", err)
		storage = store.NewMockStore()
	}

	metrics.ServeIfConfigured(log)

	reviewer := codex.NewReviewer(client, cfg, log)
	svc := bridge.NewService(reviewer, storage, &gitdiff.GitResolver{}, log)

	server := mcpserver.NewServer(svc, build.Version, log)

	log.Info("Starting review bridge server",
		"version", build.Version, "db", dbPath)

	return server.Run(context.Background(), &mcp.StdioTransport{})
}
