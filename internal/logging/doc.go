// Package logging assembles the structured slog loggers used across towlot.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so engine code tags log lines with
// vehicle IDs, stages, and cycle correlation IDs consistently. It also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
