package commands

import (
	"fmt"
	"log/slog"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/AmirShayegh/codex-claude-bridge/internal/bridge"
	"github.com/AmirShayegh/codex-claude-bridge/internal/build"
	"github.com/AmirShayegh/codex-claude-bridge/internal/codex"
	"github.com/AmirShayegh/codex-claude-bridge/internal/config"
	"github.com/AmirShayegh/codex-claude-bridge/internal/gitdiff"
	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
	"github.com/AmirShayegh/codex-claude-bridge/internal/store"
)

// newLogManager builds the CLI logging setup, honoring --verbose.
func newLogManager() (*build.LogManager, error) {
	return build.NewLogManager(build.LogConfig{Verbose: verbose})
}

// newService wires a review service for a one-shot CLI invocation. Session
// tracking degrades to in-memory storage when the database cannot be
// opened, the review itself still runs.
func newService(log *slog.Logger) (*bridge.Service, func(), error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, err
	}

	client, err := codex.NewSDKClient()
	if err != nil {
		return nil, nil, err
	}

	var (
		storage store.Storage
		closeFn = func() {}
	)
	path, err := dbPath, error(nil)
	if path == "" {
		path, err = store.DefaultDBPath()
	}
	if err == nil {
		var sqlStore *store.SQLStore
		sqlStore, err = store.Open(path, log)
		if err == nil {
			storage = sqlStore
			closeFn = func() { sqlStore.Close() }
		}
	}
	if err != nil {
		log.Warn("Falling back to in-memory session store",
			"error", err)
		storage = store.NewMockStore()
	}

	reviewer := codex.NewReviewer(client, cfg, log)
	svc := bridge.NewService(reviewer, storage, &gitdiff.GitResolver{}, log)

	return svc, closeFn, nil
}

// sessionOption converts the --session flag into an optional session ID.
func sessionOption() fn.Option[string] {
	if sessionID == "" {
		return fn.None[string]()
	}
	return fn.Some(sessionID)
}

// depthFlag is a pflag.Value that rejects unknown review depths at parse
// time instead of failing mid-review.
type depthFlag struct {
	depth review.Depth
}

func (d *depthFlag) String() string {
	return string(d.depth)
}

func (d *depthFlag) Set(value string) error {
	switch review.Depth(value) {
	case review.DepthQuick, review.DepthThorough:
		d.depth = review.Depth(value)
		return nil
	default:
		return fmt.Errorf("invalid depth %q, must be %q or %q",
			value, review.DepthQuick, review.DepthThorough)
	}
}

func (d *depthFlag) Type() string {
	return "depth"
}
