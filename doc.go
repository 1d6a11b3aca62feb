// Package goConsole is the client-side session and access-control core of an
// administrative console. It signs users in against a remote authority,
// persists the resulting session, renews and ends it, and answers
// "is anyone signed in", "does the user hold this permission" and "does the
// user have this role".
//
// A [Console] is built with [New] and starts in StateLoading. [Console.Init]
// reads the session store once, without any network call, and moves to
// StateSignedIn or StateSignedOut. Every later transition is published to
// subscribers registered with [Console.Subscribe].
//
// # Architecture boundaries
//
// goConsole is the public surface. It exposes [Console], [Builder], [Config],
// the [Error] taxonomy and value types. Credential flows live in
// internal/flows, persistence in session, predicates in access and render
// decisions in guard.
//
// # What this package must NOT do
//
//   - Log or audit access and refresh tokens.
//   - Retry authority calls, except the single refresh-and-retry of
//     [AuthorizedClient] on 401.
//   - Refresh in the background or poll the authority.
//   - Leave a partially written session in the store.
package goConsole
