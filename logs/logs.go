// Package logs wires the process logger: human-readable text on
// stderr fanned out with a JSON file log under the workspace.
package logs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// Setup builds the shared logger. The returned close function flushes
// and closes the file sink.
func Setup(workspace string, level slog.Level) (*slog.Logger, func() error, error) {
	logDir := filepath.Join(workspace, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log dir: %w", err)
	}

	logPath := filepath.Join(logDir, "gammakit.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := slogmulti.Fanout(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	)
	return slog.New(handler), file.Close, nil
}
