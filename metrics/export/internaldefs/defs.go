package internaldefs

import (
	goConsole "github.com/MrEthical07/goConsole"
)

// CounterDef names one console counter for exporters.
type CounterDef struct {
	ID   goConsole.MetricID
	Name string
	Help string
}

// HistogramDef names one console histogram for exporters.
type HistogramDef struct {
	ID   goConsole.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported console counter.
var CounterDefs = []CounterDef{
	{ID: goConsole.MetricLoginSuccess, Name: "goconsole_login_success_total", Help: "Successful sign-ins."},
	{ID: goConsole.MetricLoginFailure, Name: "goconsole_login_failure_total", Help: "Sign-ins rejected by the authority or locally."},
	{ID: goConsole.MetricLoginUnreachable, Name: "goconsole_login_unreachable_total", Help: "Sign-ins that could not reach the authority."},
	{ID: goConsole.MetricLogout, Name: "goconsole_logout_total", Help: "Sign-outs."},
	{ID: goConsole.MetricLogoutRemoteFailure, Name: "goconsole_logout_remote_failure_total", Help: "Sign-outs whose authority notification failed."},
	{ID: goConsole.MetricRefreshSuccess, Name: "goconsole_refresh_success_total", Help: "Successful token refreshes."},
	{ID: goConsole.MetricRefreshFailure, Name: "goconsole_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: goConsole.MetricSessionRestored, Name: "goconsole_session_restored_total", Help: "Sessions restored from the store at startup."},
	{ID: goConsole.MetricSessionExpired, Name: "goconsole_session_expired_total", Help: "Sessions ended because renewal failed."},
	{ID: goConsole.MetricProfileReloaded, Name: "goconsole_profile_reloaded_total", Help: "Successful profile reloads."},
	{ID: goConsole.MetricProfileReloadFailure, Name: "goconsole_profile_reload_failure_total", Help: "Failed profile reloads."},
	{ID: goConsole.MetricAuthorizedRetry, Name: "goconsole_authorized_retry_total", Help: "Authorized calls retried after a 401 and refresh."},
	{ID: goConsole.MetricGuardDenied, Name: "goconsole_guard_denied_total", Help: "Route guard denials."},
}

// HistogramDefs lists every exported console histogram.
var HistogramDefs = []HistogramDef{
	{ID: goConsole.MetricLoginLatency, Name: "goconsole_login_latency_seconds", Help: "Sign-in round trip latency."},
}

// HistogramBounds are the upper bounds of the latency buckets.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in a form usable inside names.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies up to eight buckets into a fixed array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
