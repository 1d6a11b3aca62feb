// Package jwt issues and verifies console access tokens, and reads tokens
// without verification for display.
//
// [Manager] is used by the development authority. [Inspect] is used by the
// command line to show who a stored token belongs to and when it expires; the
// console itself treats tokens as opaque.
package jwt
