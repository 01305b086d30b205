// Package session persists the single live portal session (identity,
// role, tokens, last-activity) through a durable key→string surface.
// Redis backs production; an in-memory surface backs tests and
// single-node development.
package session
