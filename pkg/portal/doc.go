// Package portal implements the session lifecycle state machine:
// sign-in with portal role fencing, sign-up provisioning, session
// restore, forced password reset, unconditional sign-out and the
// inactivity watchdog. One Manager owns exactly one live session and
// is parameterized by an injected identity provider, so deployments
// swap provider implementations instead of maintaining parallel
// managers.
package portal
