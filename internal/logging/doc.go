// Package logging assembles structured slog loggers and formatting helpers.
//
// It owns the console and JSON handlers, the run-scoped Session that tees
// console output into a per-run JSON log, and context helpers that tag records
// with run IDs, album titles, and stages. WarnWithContext enforces the
// cause/impact/next-step shape for every warning the reconciler emits.
package logging
