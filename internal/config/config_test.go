package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

func TestParseEmptyObjectYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseRoundTripsDefaults(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Default())
	require.NoError(t, err)

	cfg, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseOverridesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`{
		"model_name": "gpt-5",
		"reasoning_effort": "high",
		"timeout_seconds": 60,
		"precommit": {"block_on": ["critical"]}
	}`))
	require.NoError(t, err)
	require.Equal(t, "gpt-5", cfg.ModelName)
	require.Equal(t, EffortHigh, cfg.ReasoningEffort)
	require.Equal(t, 60, cfg.TimeoutSeconds)
	require.Equal(t, []string{"critical"}, cfg.Precommit.BlockOn)

	// Untouched values keep their defaults.
	require.Equal(t, 8000, cfg.MaxChunkTokens)
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		json string
	}{
		{"negative timeout", `{"timeout_seconds": -1}`},
		{"zero timeout", `{"timeout_seconds": 0}`},
		{"non-integer timeout", `{"timeout_seconds": 1.5}`},
		{"unknown effort", `{"reasoning_effort": "extreme"}`},
		{"unknown block_on", `{"precommit": {"block_on": ["high"]}}`},
		{"malformed", `{not json`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tc.json))
			require.Error(t, err)
			require.True(t,
				review.IsCode(err, review.CodeConfigError),
				"want CONFIG_ERROR, got %v", err)
		})
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadReadsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := os.WriteFile(
		filepath.Join(dir, FileName),
		[]byte(`{"model_name": "o4-mini"}`), 0o644,
	)
	require.NoError(t, err)

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "o4-mini", cfg.ModelName)
}

func TestLoadMalformedFileIsConfigError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := os.WriteFile(
		filepath.Join(dir, FileName), []byte(`{{{`), 0o644,
	)
	require.NoError(t, err)

	_, err = Load(dir)
	require.True(t, review.IsCode(err, review.CodeConfigError))
}
