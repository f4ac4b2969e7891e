// Package cli implements the forge command-line interface.
//
// Commands operate on a workspace: the directory holding forge.toml (or the
// working directory when there is none) and its ai/ document tree.
//
// # Commands
//
// The main commands are:
//   - diagram: parse, format, validate, edit and export diagram documents
//   - new, list, show, pick: scaffold and browse documents
//   - session: record changed files and end work sessions
//   - watch: revalidate diagrams as they are edited
//   - serve: the HTTP API used by the diagram canvas
//   - cache: inspect and clear the parse and export cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --trace
// for pipeline, cache and HTTP events. The logger is attached to the
// command context and retrieved with loggerFromContext.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation when it completes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Exported 2 files (41ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() when
// none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
