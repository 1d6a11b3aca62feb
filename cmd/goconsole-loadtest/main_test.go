package main

import (
	"context"
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    int
		want time.Duration
	}{
		{p: 0, want: 1},
		{p: 50, want: 5},
		{p: 99, want: 9},
		{p: 100, want: 10},
	}
	for _, tc := range tests {
		if got := percentile(samples, tc.p); got != tc.want {
			t.Fatalf("p%d: expected %v, got %v", tc.p, tc.want, got)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("expected 0 for no samples, got %v", got)
	}
}

func TestRunSmall(t *testing.T) {
	err := run(context.Background(), options{consoles: 2, concurrency: 4, ops: 40, prefix: "lt-test"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestRunRejectsZeroOptions(t *testing.T) {
	if err := run(context.Background(), options{consoles: 0, concurrency: 1, ops: 1}); err == nil {
		t.Fatal("expected error")
	}
}
