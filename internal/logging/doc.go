// Package logging assembles structured slog loggers and formatting helpers used
// across mapwatch.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so poller code can automatically
// tag log lines with streamer names, cycle ids and stages. Console output is
// coloured only when the destination is a terminal. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
