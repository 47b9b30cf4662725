// Package logging provides structured, subsystem-tagged logging for orgsync.
//
// It is a thin wrapper around Go's standard slog package. Every log entry
// carries a subsystem identifier (for example "TeamSync" or "RepoCheck") so
// output from a reconciliation run can be filtered by component.
//
// Usage:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("TeamSync", "processing %d teams", n)
//	logging.Error("GitHub", err, "failed to list teams for %s", owner)
package logging
