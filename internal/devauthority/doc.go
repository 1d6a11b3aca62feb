// Package devauthority is an in-memory console authority used by tests and
// by the goconsole dev-authority command.
//
// It serves the same HTTP contract a production authority exposes under
// /api: sign-in, sign-out, token refresh, and the current-user profile.
// Passwords are stored as argon2id hashes, access tokens are signed JWTs from
// package jwt, and refresh tokens are opaque values rotated on every use.
//
// # Architecture boundaries
//
// The authority owns its account table, refresh grants, and revocation list.
// Role grants come from a [permission.RoleManager]; the permissions embedded
// in a sign-in response are whatever the account's role maps to at that
// moment.
//
// When [Config.Redis] is set, failed sign-ins are throttled per username and
// client IP through package rate; a throttled sign-in answers 429.
//
// # What this package must NOT do
//
//   - persist accounts or grants across restarts
//   - log passwords or tokens
//   - be exposed on a public interface
package devauthority
