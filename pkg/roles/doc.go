// Package roles is the static role registry: the canonical role set,
// the alias table that normalizes form and claim strings onto it, and
// the per-role backing configuration used to materialize profiles.
//
// Normalization never guesses: an unrecognized role string is an
// *InvalidRoleError, not a silent fallback. Once a role has been
// normalized, ConfigFor is total over the canonical set.
package roles
