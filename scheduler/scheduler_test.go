package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickOnceRendersWithoutDirtyMarks(t *testing.T) {
	var renders int32
	s := New(func(dt time.Duration) { atomic.AddInt32(&renders, 1) }, 16*time.Millisecond)

	s.TickOnce()
	if got := atomic.LoadInt32(&renders); got != 1 {
		t.Fatalf("TickOnce must always render regardless of dirty state: got %d renders", got)
	}
}

func TestStartStopCoalescesDirtyMarks(t *testing.T) {
	var renders int32
	s := New(func(dt time.Duration) { atomic.AddInt32(&renders, 1) }, 2*time.Millisecond)

	s.Start()
	// No dirty marks raised: loop should tick without rendering.
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	if got := atomic.LoadInt32(&renders); got != 0 {
		t.Fatalf("expected no renders with an empty dirty set, got %d", got)
	}

	s.MarkDirty(DirtyData)
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	if got := atomic.LoadInt32(&renders); got != 1 {
		t.Fatalf("multiple dirty marks between ticks should coalesce into a single render, got %d", got)
	}
}

func TestMetricsPercentilesMonotonic(t *testing.T) {
	s := New(func(dt time.Duration) {}, 16*time.Millisecond)
	now := time.Now()
	for i := 0; i < 150; i++ {
		now = now.Add(time.Duration(10+i%5) * time.Millisecond)
		s.tick(now)
	}

	m := s.Metrics()
	if m.SampleCount != historySize {
		t.Fatalf("expected ring buffer to cap at %d samples, got %d", historySize, m.SampleCount)
	}
	if m.P50 > m.P95 || m.P95 > m.P99 {
		t.Fatalf("percentiles must be non-decreasing: p50=%s p95=%s p99=%s", m.P50, m.P95, m.P99)
	}
	if m.MinFrameTime > m.P50 || m.P99 > m.MaxFrameTime {
		t.Fatalf("min/max must bound percentiles: min=%s p50=%s p99=%s max=%s", m.MinFrameTime, m.P50, m.P99, m.MaxFrameTime)
	}
}

func TestDropCountResetsOnGoodFrame(t *testing.T) {
	s := New(func(dt time.Duration) {}, 10*time.Millisecond)
	now := time.Now()
	s.tick(now) // first tick has no predecessor, so it records dt=0

	now = now.Add(50 * time.Millisecond)
	s.tick(now)
	if s.consecutiveDrops == 0 {
		t.Fatalf("expected a dropped-frame classification for a 50ms delta against a 10ms target")
	}

	now = now.Add(10 * time.Millisecond)
	s.tick(now)
	if s.consecutiveDrops != 0 {
		t.Fatalf("a frame within target interval should reset consecutive drop count, got %d", s.consecutiveDrops)
	}
}
