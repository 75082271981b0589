// Package session turns provider-issued identity tokens into durable,
// revocable, CSRF-protected browser sessions and exposes a consistent
// authentication state to application code before that state is fully
// resolved.
//
// Server side:
//   - Protocol exchanges a verified identity token (plus a double-submit
//     CSRF token) for a long-lived session cookie, and tears sessions down
//     including best-effort upstream revocation.
//   - Resolver derives a verified user from the incoming cookie jar, trying
//     the session cookie first and falling back to the short-lived raw
//     identity token.
//   - middleware/routeguard gates protected routes with a cheap
//     presence-only cookie pre-check; middleware/sessionware performs the
//     deeper per-request verification.
//
// Client side:
//   - StateMachine folds provider user-change events into a discriminated
//     AuthState and de-duplicates change notifications.
//   - Instance wraps an eventually-available provider delegate, queueing UI
//     mounts, listener registrations, and method calls issued before the
//     delegate is attached, then replays them exactly once.
//
// The identity provider itself is consumed through the narrow
// IdentityProvider interface; provider/localjwt ships a self-contained JWT
// implementation for development and tests.
package session
