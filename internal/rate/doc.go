// Package rate throttles failed sign-ins to the dev authority using Redis
// counters.
//
// # Window semantics
//
// Fixed-window counters: INCR plus EXPIRE on the first hit. Key prefixes:
//   - dl:  failures per username
//   - dli: failures per client IP
//
// Once a counter reaches MaxLoginAttempts, further sign-ins for that key are
// refused until the window expires, whether or not the password is right.
//
// # What this package must NOT do
//
//   - Decide HTTP status codes or messages.
//   - Fail open silently. Redis errors surface as [ErrRedisUnavailable].
package rate
