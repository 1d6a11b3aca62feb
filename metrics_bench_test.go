package goConsole

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goConsole/session"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricGuardDenied)
	}
}

func BenchmarkMetricsIncDisabled(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricGuardDenied)
	}
}

var hotConsoleMetricIDs = [...]MetricID{
	MetricLoginSuccess,
	MetricRefreshSuccess,
	MetricAuthorizedRetry,
	MetricGuardDenied,
}

func BenchmarkMetricsIncMixedParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			m.Inc(hotConsoleMetricIDs[idx])
			idx++
			if idx == len(hotConsoleMetricIDs) {
				idx = 0
			}
		}
	})
}

func BenchmarkMetricsObserveLoginLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	d := 120 * time.Millisecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricLoginLatency, d)
		}
	})
}

func BenchmarkHasPermissionParallel(b *testing.B) {
	backend := session.NewMemoryBackend()
	seedAlice(b, backend)
	c, err := New().WithConfig(testConfig("http://127.0.0.1:1/api")).WithBackend(backend).Build()
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}
	defer c.Close()
	if err := c.Init(context.Background()); err != nil {
		b.Fatalf("Init failed: %v", err)
	}
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = c.HasPermission(ctx, "user:read")
		}
	})
}
