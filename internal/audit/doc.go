// Package audit dispatches credential lifecycle events to a sink.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, fan-out, no-op).
//   - [Dispatcher]: buffered async relay. It drops or blocks when full, stamps
//     timestamps and strips credential-looking metadata keys.
//   - [Event]: structured record with timestamp, type, user identity and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit; the console does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goConsole or any sibling internal package.
//   - Carry access or refresh tokens.
package audit
