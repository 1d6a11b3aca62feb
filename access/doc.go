// Package access answers "is there a session", "does the user hold this
// capability", and "does the user have this role".
//
// The package-level predicates are pure functions over a session snapshot.
// [Evaluator] applies the same predicates to a fresh store read on each call.
// With no session every predicate returns false; none of them panic.
//
// Permission and role checks are independent: holding a role never implies a
// capability, and a capability never implies a role.
package access
