package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// stdinIdleTimeout bounds how long a read from stdin may sit idle. The
// timer resets on every chunk, so large inputs are fine while a forgotten
// `-` without piped input fails quickly instead of hanging a hook.
const stdinIdleTimeout = 5 * time.Second

// stdinConsumed latches after the first `-` argument drains stdin. Two
// flags cannot both read from the same pipe, so the second one errors.
var stdinConsumed bool

// readInput resolves a <path|-> flag value, returning the file contents or
// everything piped on stdin.
func readInput(value string) (string, error) {
	if value == "-" {
		return readStdin()
	}

	data, err := os.ReadFile(value)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", value, err)
	}

	return string(data), nil
}

func readStdin() (string, error) {
	if stdinConsumed {
		return "", errors.New("stdin already consumed, only one " +
			"flag may be set to '-'")
	}
	stdinConsumed = true

	var buf bytes.Buffer
	chunk := make([]byte, 64*1024)
	for {
		if err := os.Stdin.SetReadDeadline(
			time.Now().Add(stdinIdleTimeout),
		); err != nil {
			// Not all stdin kinds support deadlines. Fall back
			// to a plain blocking read.
			_, err := buf.ReadFrom(os.Stdin)
			if err != nil {
				return "", fmt.Errorf("failed to read "+
					"stdin: %w", err)
			}
			return buf.String(), nil
		}

		n, err := os.Stdin.Read(chunk)
		buf.Write(chunk[:n])

		switch {
		case errors.Is(err, io.EOF):
			return buf.String(), nil

		case errors.Is(err, os.ErrDeadlineExceeded):
			return "", fmt.Errorf("timed out after %v waiting "+
				"for input on stdin", stdinIdleTimeout)

		case err != nil:
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
	}
}
