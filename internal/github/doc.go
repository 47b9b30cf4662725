// Package github provides the concrete GitHub REST client behind the
// teamsync and repocheck provider interfaces.
//
// The client wraps google/go-github with:
//   - retrying transport (hashicorp/go-retryablehttp) for transient API
//     failures and secondary rate limits
//   - token authentication and optional GitHub Enterprise base URLs
//   - a short-lived read cache so one run does not refetch org-wide
//     listings per team or repository
//
// Mutating calls invalidate the affected cache entries so a run always
// observes its own writes.
package github
