// Package teamsync reconciles declared team topology against the
// organization's live state.
//
// The package is split into four collaborators:
//
//   - Resolver: expands configuration (static definitions plus dynamic
//     membership rules) into desired teams with concrete target membership.
//   - Diff: a pure function computing the change set between one desired
//     team and its observed state.
//   - Applier: turns a change set into the minimal sequence of provider
//     mutations, or logs intended actions in dry-run mode.
//   - Manager: orchestrates a run end to end and aggregates a SyncResult.
//
// A run holds no state beyond its own in-memory inventory map; the
// provider's live data is the state. Running Sync twice without external
// changes in between yields a second result with no changes.
//
// The per-team loop is sequential by design: parent-team references resolve
// against teams already handled earlier in the same run, so declaration
// order is a documented contract (parents before children).
package teamsync
