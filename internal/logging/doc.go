// Package logging assembles structured slog loggers and formatting helpers used
// across dubber.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code can tag log lines with the
// run ID, pipeline stage, and segment index. A no-op logger is provided for
// tests and for wiring code that cannot fail.
package logging
