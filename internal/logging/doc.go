// Package logging assembles the slog loggers used across Brand Guardian.
//
// It owns the console and JSON handlers, the context helpers that tag lines
// with session, video, stage, and correlation IDs, and per-audit log files
// that mirror one session's records next to the process log.
package logging
