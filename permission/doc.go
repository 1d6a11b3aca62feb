// Package permission provides the capability token vocabulary used by console
// access checks: an immutable [Set] of tokens, a [Registry] of known tokens, and
// a [RoleManager] holding the default token list for each role.
//
// # Open vocabulary
//
// Tokens are opaque strings issued by the authority (for example "user:read").
// The catalog constants in this package are a convenience; a [Set] accepts any
// non-empty token and matching is exact and case-sensitive. There are no
// wildcards and no hierarchy: "user:manage_all" does not imply "user:read".
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. The session
// snapshot embeds a [Set]; the development authority seeds its users from
// [DefaultRoles].
//
// # What this package must NOT do
//
//   - Access storage or the network.
//   - Import goConsole, session, or access.
//   - Derive permissions from roles at evaluation time.
package permission
