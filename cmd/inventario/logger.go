package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout (or to
// stderr when quiet stdout is needed for command output), ERROR goes to
// stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string, infoToStderr bool) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	if infoToStderr {
		stdoutW = os.Stderr
	}
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(stdoutW, f)
		stderrW = io.MultiWriter(stderrW, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}
