// Package prometheus renders console counters in Prometheus text format.
//
// [NewPrometheusExporter] reads a [goConsole.Console] and exposes both a
// [http.Handler] and a plain [Exporter.Render] for one-shot dumps. Counter
// names are goconsole_*_total; the only histogram is
// goconsole_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in a global registry. Callers mount the Handler.
//   - Change console state.
package prometheus
