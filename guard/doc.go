// Package guard decides what a protected surface renders: a pending
// indicator, the sign-in surface, a denial notice or the content itself.
//
// [Decide] checks, in order, whether the session context is still loading,
// whether anyone is signed in, the required permission and the required role.
// [Middleware] adapts the same decision to net/http.
//
// # Architecture boundaries
//
// The guard reads the session context through [Source]. It does NOT sign
// anyone in or out and holds no state between decisions.
//
// # What this package must NOT do
//
//   - Render protected content while the context is loading.
//   - Treat a role as implying a permission.
//   - Import goConsole (the console satisfies [Source] structurally).
package guard
