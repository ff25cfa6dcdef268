package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewLogManagerWritesRotatingFile checks that setting LogDir actually
// lands records in a rotating log file, alongside the console handler.
func TestNewLogManagerWritesRotatingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	m, err := NewLogManager(LogConfig{LogDir: dir})
	require.NoError(t, err)

	m.Logger().Info("Server online", "version", Version)
	require.NoError(t, m.Close())

	// The rotator drains its pipe in a background goroutine, so the
	// record may land shortly after Close returns.
	logFile := filepath.Join(dir, DefaultLogFilename)
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logFile)
		return err == nil &&
			strings.Contains(string(data), "Server online")
	}, time.Second, 10*time.Millisecond)
}

func TestNewLogManagerConsoleOnly(t *testing.T) {
	t.Parallel()

	m, err := NewLogManager(LogConfig{})
	require.NoError(t, err)
	require.Nil(t, m.rotator)
	require.NoError(t, m.Close())
}

func TestDefaultLogDir(t *testing.T) {
	t.Parallel()

	dir, err := DefaultLogDir()
	require.NoError(t, err)
	require.Equal(
		t, filepath.Join(".reviewbridge", "logs"),
		filepath.Join(filepath.Base(filepath.Dir(dir)),
			filepath.Base(dir)),
	)
}
