package otel

import (
	"context"
	"sync"
	"testing"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/permission"
	"github.com/MrEthical07/goConsole/session"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goConsole.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goConsole.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goConsole.MetricsSnapshot{
		Counters:   make(map[goConsole.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goConsole.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += dp.Value
				}
			}
		}
	}
	return out
}

// collectSeries keys each int64 data point by metric name and the value of
// attrKey, and returns float64 gauges by name.
func collectSeries(t *testing.T, reader *sdkmetric.ManualReader, attrKey attribute.Key) (map[string]int64, map[string]float64) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	ints := map[string]int64{}
	floats := map[string]float64{}
	key := func(name string, set attribute.Set) string {
		if v, ok := set.Value(attrKey); ok {
			return name + "{" + v.AsString() + "}"
		}
		return name
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					ints[key(m.Name, dp.Attributes)] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					ints[key(m.Name, dp.Attributes)] += dp.Value
				}
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					floats[m.Name] = dp.Value
				}
			}
		}
	}
	return ints, floats
}

type stateSource struct {
	fakeSource
	snap goConsole.Snapshot
}

func (s *stateSource) Snapshot() goConsole.Snapshot { return s.snap }

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("goconsole-test")

	src := &fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters: map[goConsole.MetricID]uint64{
				goConsole.MetricLoginSuccess:    3,
				goConsole.MetricAuthorizedRetry: 2,
			},
			Histograms: map[goConsole.MetricID][]uint64{
				goConsole.MetricLoginLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	got := collectSums(t, reader)
	if got["goconsole_login_success_total"] != 3 {
		t.Fatalf("expected login_success 3, got %d", got["goconsole_login_success_total"])
	}
	if got["goconsole_authorized_retry_total"] != 2 {
		t.Fatalf("expected authorized_retry 2, got %d", got["goconsole_authorized_retry_total"])
	}
	if got["goconsole_login_latency_seconds_bucket_le_0_25"] != 3 {
		t.Fatalf("expected cumulative bucket 3, got %d", got["goconsole_login_latency_seconds_bucket_le_0_25"])
	}
	if got["goconsole_login_latency_seconds_count"] != 8 {
		t.Fatalf("expected count 8, got %d", got["goconsole_login_latency_seconds_count"])
	}
	if got["goconsole_audit_dropped_total"] != 1 {
		t.Fatalf("expected audit dropped 1, got %d", got["goconsole_audit_dropped_total"])
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newReader()
	meter := provider.Meter("goconsole-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporter(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil console, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterReadsConsole(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("goconsole-test")

	cfg := goConsole.DefaultConfig()
	cfg.Metrics.Enabled = true
	c, err := goConsole.New().WithConfig(cfg).WithBackend(session.NewMemoryBackend()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer c.Close()
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	c.RecordDenial(context.Background(), "unauthenticated")

	exp, err := NewOTelExporter(meter, c)
	if err != nil {
		t.Fatalf("NewOTelExporter failed: %v", err)
	}
	defer exp.Close()

	if got := collectSums(t, reader)["goconsole_guard_denied_total"]; got != 1 {
		t.Fatalf("expected one guard denial, got %d", got)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("goconsole-test")

	src := &fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters: map[goConsole.MetricID]uint64{
				goConsole.MetricLoginSuccess: 1,
			},
			Histograms: map[goConsole.MetricID][]uint64{
				goConsole.MetricLoginLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goConsole.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}

func TestExporterLabelsConsoleOutcomes(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("goconsole-test")

	src := &fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters: map[goConsole.MetricID]uint64{
				goConsole.MetricLoginSuccess:         4,
				goConsole.MetricLoginFailure:         2,
				goConsole.MetricLoginUnreachable:     1,
				goConsole.MetricProfileReloaded:      5,
				goConsole.MetricProfileReloadFailure: 1,
				goConsole.MetricGuardDenied:          2,
			},
		},
	}
	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	logins, ratios := collectSeries(t, reader, "outcome")
	for series, want := range map[string]int64{
		"goconsole_login_attempts_total{success}":     4,
		"goconsole_login_attempts_total{rejected}":    2,
		"goconsole_login_attempts_total{unreachable}": 1,
	} {
		if logins[series] != want {
			t.Fatalf("expected %s=%d, got %d", series, want, logins[series])
		}
	}
	if got := ratios["goconsole_guard_denials_per_login"]; got != 0.5 {
		t.Fatalf("expected denial ratio 0.5, got %v", got)
	}
	if _, ok := logins["goconsole_session_signed_in"]; ok {
		t.Fatal("session gauge needs a state source")
	}

	reloads, _ := collectSeries(t, reader, "result")
	if reloads["goconsole_profile_reloads_total{ok}"] != 5 || reloads["goconsole_profile_reloads_total{failure}"] != 1 {
		t.Fatalf("unexpected profile reload series: %v", reloads)
	}
}

func TestExporterSessionGaugeCarriesRole(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("goconsole-test")

	src := &stateSource{
		fakeSource: fakeSource{snapshot: goConsole.MetricsSnapshot{Counters: map[goConsole.MetricID]uint64{}}},
		snap: goConsole.Snapshot{
			State: goConsole.StateSignedIn,
			User:  &session.User{ID: 7, Username: "alice", Role: session.RoleStaff, Permissions: permission.NewSet(permission.UserRead)},
		},
	}
	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	got, ratios := collectSeries(t, reader, "role")
	if got["goconsole_session_signed_in{STAFF}"] != 1 {
		t.Fatalf("expected STAFF session gauge, got %v", got)
	}
	if ratios["goconsole_guard_denials_per_login"] != 0 {
		t.Fatal("denial ratio must be zero before any login")
	}

	src.snap = goConsole.Snapshot{State: goConsole.StateSignedOut}
	got, _ = collectSeries(t, reader, "role")
	if v, ok := got["goconsole_session_signed_in"]; !ok || v != 0 {
		t.Fatalf("expected signed out gauge 0, got %v", got)
	}
}
