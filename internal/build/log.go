// Package build holds the logging plumbing and version information shared
// by the server and CLI entry points.
package build

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// Version is the semantic version of the binary.
const Version = "0.2.0"

// DefaultLogDir returns the directory the server writes rotating log files
// to.
func DefaultLogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".reviewbridge", "logs"), nil
}

// LogConfig configures the process-wide logger.
type LogConfig struct {
	// LogDir enables file logging with rotation when non-empty.
	LogDir string

	// Verbose lowers the log level to debug.
	Verbose bool
}

// LogManager owns the process logger and the resources behind it.
type LogManager struct {
	logger  *slog.Logger
	rotator *RotatingLogWriter
}

// NewLogManager builds the process logger. Console output always goes to
// stderr: stdout belongs to the tool-call protocol when the server runs on
// stdio. When cfg.LogDir is set, records additionally land in a rotating
// log file there.
func NewLogManager(cfg LogConfig) (*LogManager, error) {
	handlers := []btclogv2.Handler{
		btclogv2.NewDefaultHandler(os.Stderr),
	}

	m := &LogManager{}

	if cfg.LogDir != "" {
		m.rotator = NewRotatingLogWriter()
		err := m.rotator.InitLogRotator(&LogRotatorConfig{
			LogDir:         cfg.LogDir,
			MaxLogFiles:    DefaultMaxLogFiles,
			MaxLogFileSize: DefaultMaxLogFileSize,
		})
		if err != nil {
			return nil, err
		}

		handlers = append(
			handlers, btclogv2.NewDefaultHandler(m.rotator),
		)
	}

	set := NewHandlerSet(handlers...)
	if cfg.Verbose {
		set.SetLevel(btclog.LevelDebug)
	}

	m.logger = slog.New(set)

	return m, nil
}

// Logger returns the process logger.
func (m *LogManager) Logger() *slog.Logger {
	return m.logger
}

// Close flushes and releases the file rotator, if any.
func (m *LogManager) Close() error {
	if m.rotator != nil {
		return m.rotator.Close()
	}
	return nil
}
