// Package config loads and validates the orgsync configuration.
//
// Configuration lives in a single orgsync.yaml inside a config directory
// (default ~/.config/orgsync, overridable per command). The file declares
// the organization owner, static team definitions, dynamic team rules, the
// unmanaged-team policy and the repository compliance policy.
//
// Validation is a whole-file pass: every problem is collected into one
// ValidationErrors value so operators fix the file in a single round trip.
// Conditions the reconciler can still resolve at run time, such as parent
// teams that only exist in the live organization, surface as warnings
// instead of errors.
package config
