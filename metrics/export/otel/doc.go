// Package otel publishes console counters through OpenTelemetry.
//
// [NewOTelExporter] registers an Int64ObservableCounter per console counter
// and an Int64ObservableGauge per latency bucket. On top of the flat series it
// publishes login attempts by outcome, profile reloads by result, the guard
// denial ratio, and a signed-in gauge labelled with the session role. One
// callback reads [goConsole.Console.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Change console state.
package otel
