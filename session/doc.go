// Package session provides the persisted console session: the [Session] and
// [User] snapshot model, a JSON snapshot codec, and a [Store] that reads and
// writes the three session slots through a pluggable [Backend].
//
// # Slots
//
// A session is persisted as three named slots: "accessToken", "refreshToken",
// and "user" (the serialized user snapshot). A session is either fully present
// or absent: [Store.Write] hands all three slots to the backend in a single
// call, and [Store.Read] reports absence whenever any slot is missing or the
// user snapshot does not decode.
//
// # Backends
//
// [MemoryBackend] keeps slots in process. [FileBackend] keeps them in a single
// JSON document replaced by rename. [RedisBackend] keeps them in three keys
// written in one MULTI/EXEC.
//
// # Architecture boundaries
//
// This package owns persistence and the snapshot model. It does NOT talk to
// the authority, evaluate permissions, or track lifecycle state; those
// responsibilities belong to the console.
//
// # What this package must NOT do
//
//   - Import goConsole, access, or guard (no upward imports).
//   - Patch individual slots of a stored session.
//   - Log token values.
package session
