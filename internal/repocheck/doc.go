// Package repocheck enforces repository-level compliance policy: merge
// method settings, branch protection, security scanning, and archival.
//
// Each check is a simple fetch-compare-patch unit. Repositories are
// independent of each other, so the runner checks them concurrently with a
// bounded worker group; failures stay scoped to their repository and are
// reported as findings, never as aborts.
package repocheck
