// Package config loads the bridge configuration from .reviewbridge.json.
// The file is read once at startup; the resulting Config is immutable.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// FileName is the config file looked up in the config directory.
const FileName = ".reviewbridge.json"

// ReasoningEffort controls how much reasoning the reviewer model spends.
type ReasoningEffort string

const (
	EffortLow    ReasoningEffort = "low"
	EffortMedium ReasoningEffort = "medium"
	EffortHigh   ReasoningEffort = "high"
)

// PlanDefaults are the per-kind defaults applied to plan reviews when the
// request leaves them unset.
type PlanDefaults struct {
	Focus []string     `json:"focus,omitempty"`
	Depth review.Depth `json:"depth,omitempty"`
}

// CodeDefaults are the per-kind defaults applied to code reviews.
type CodeDefaults struct {
	Criteria     []string `json:"criteria,omitempty"`
	RequireTests bool     `json:"require_tests,omitempty"`
}

// PrecommitDefaults are the per-kind defaults applied to precommit checks.
type PrecommitDefaults struct {
	// BlockOn is the set of severities at or above which an issue
	// blocks the commit.
	BlockOn []string `json:"block_on,omitempty"`
}

// Config is the full bridge configuration.
type Config struct {
	ModelName       string          `json:"model_name,omitempty"`
	ReasoningEffort ReasoningEffort `json:"reasoning_effort,omitempty"`

	// TimeoutSeconds bounds a single reviewer turn.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// MaxChunkTokens is the budget handed to the diff chunker, before
	// the client subtracts prompt overhead.
	MaxChunkTokens int `json:"max_chunk_tokens,omitempty"`

	// ProjectContext is background prepended to every prompt.
	ProjectContext string `json:"project_context,omitempty"`

	Plan      PlanDefaults      `json:"plan,omitempty"`
	Code      CodeDefaults      `json:"code,omitempty"`
	Precommit PrecommitDefaults `json:"precommit,omitempty"`
}

// Default returns the configuration used when no file is present. Parsing
// an empty JSON object yields exactly this value.
func Default() Config {
	return Config{
		ModelName:       "gpt-5-codex",
		ReasoningEffort: EffortMedium,
		TimeoutSeconds:  300,
		MaxChunkTokens:  8000,
		Plan: PlanDefaults{
			Depth: review.DepthThorough,
		},
		Precommit: PrecommitDefaults{
			BlockOn: []string{
				string(review.CodeSevCritical),
				string(review.CodeSevMajor),
			},
		},
	}
}

// Load reads the config file from dir (the working directory when empty),
// applying defaults for missing values. A missing file yields Default().
// Unreadable or invalid files yield CONFIG_ERROR.
func Load(dir string) (Config, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Default(), nil
	case err != nil:
		return Config{}, review.E(review.CodeConfigError,
			"cannot read %s: %v", path, err)
	}

	return Parse(data)
}

// Parse decodes raw JSON into a Config, layering it over the defaults and
// validating the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, review.E(review.CodeConfigError,
			"invalid config: %v", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate rejects values outside the documented schema. A schema violation
// fails the whole load.
func (c Config) validate() error {
	switch c.ReasoningEffort {
	case EffortLow, EffortMedium, EffortHigh:
	default:
		return review.E(review.CodeConfigError,
			"unknown reasoning_effort %q", c.ReasoningEffort)
	}

	if c.TimeoutSeconds <= 0 {
		return review.E(review.CodeConfigError,
			"timeout_seconds must be a positive integer, got %d",
			c.TimeoutSeconds)
	}
	if c.MaxChunkTokens <= 0 {
		return review.E(review.CodeConfigError,
			"max_chunk_tokens must be a positive integer, got %d",
			c.MaxChunkTokens)
	}

	switch c.Plan.Depth {
	case review.DepthQuick, review.DepthThorough:
	default:
		return review.E(review.CodeConfigError,
			"unknown plan depth %q", c.Plan.Depth)
	}

	valid := make([]string, len(review.CodeSeverities))
	for i, s := range review.CodeSeverities {
		valid[i] = string(s)
	}
	for _, s := range c.Precommit.BlockOn {
		if !slices.Contains(valid, s) {
			return review.E(review.CodeConfigError,
				"unknown block_on severity %q", s)
		}
	}

	return nil
}

