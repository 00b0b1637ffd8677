// Package logging assembles structured slog loggers and formatting helpers used
// across beatframe.
//
// It owns the console and JSON handlers, writes human-readable lines to
// stderr (stdout stays reserved for command output such as --json payloads),
// optionally tees JSON records into a log file, and exposes context-aware
// helpers so pipeline code tags every line with the session and stage it
// belongs to.
package logging
