// Package transport is the JSON-over-HTTP client used to reach the console
// authority.
//
// Every request carries a fresh X-Request-ID. Failures come back as [*Error],
// which separates "no response" ([Error.Unreachable]) from "the authority
// answered with a non-2xx status" ([Error.StatusCode], [Error.Message]).
//
// # What this package must NOT do
//
//   - Retry requests.
//   - Interpret status codes as credential or session outcomes.
//   - Import goConsole or session.
package transport
