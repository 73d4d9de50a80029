// Package logging assembles structured slog loggers and formatting helpers used
// across the recap pipeline.
//
// It owns the configurable console/JSON handlers, fans records out to a JSON
// run log, and exposes context-aware helpers so step code automatically tags
// log lines with run IDs, step names, and league IDs. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
package logging
