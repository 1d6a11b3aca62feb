// Package flows contains pure-function orchestrators for every credential
// operation of the console.
//
// Each flow (RunLogin, RunLogout, RunRefresh, RunReloadProfile) accepts a typed
// dependency struct and returns a result carrying a failure kind. The console
// maps failure kinds onto its public error taxonomy, records metrics and audit
// events, and publishes lifecycle transitions.
//
// # Architecture boundaries
//
// Flows coordinate the authority client and the session store. They do NOT
// own either resource; ownership stays with the console.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goConsole (to avoid import cycles).
//   - Retry authority calls.
//   - Leave a partially written session behind.
package flows
