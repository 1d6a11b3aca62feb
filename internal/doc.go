// Package internal groups the packages that are private to goConsole.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - config: file and environment configuration for the goconsole binaries
//   - devauthority: in-memory console authority for local work and tests
//   - flows: pure-function orchestrators for login, logout, refresh and profile reload
//   - rate: Redis-backed failed sign-in throttle used by devauthority
//
// # What this package must NOT do
//
//   - Export types that appear in the public goConsole API.
//   - Be imported by any package outside the goConsole module.
package internal
