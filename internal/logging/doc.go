// Package logging assembles structured slog loggers and formatting helpers used
// across sitepix commands.
//
// It owns the configurable console/JSON handlers, the optional JSON log file
// tee, and context-aware helpers that tag log lines with the run ID and
// pipeline stage. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
