package performance

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func pending(d *Debouncer) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.pending
}

func TestDebouncerCoalescesTriggers(t *testing.T) {
	var calls int32
	d := NewDebouncer(20*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	if !pending(d) {
		t.Error("Expected a pending call while triggers keep arriving")
	}

	time.Sleep(80 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 call, got %d", got)
	}
	if pending(d) {
		t.Error("Expected no pending call after the callback ran")
	}
}

func TestDebouncerCancel(t *testing.T) {
	var calls int32
	d := NewDebouncer(10*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})

	d.Trigger()
	d.Cancel()
	time.Sleep(40 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("Expected cancelled debouncer not to fire, got %d calls", got)
	}
}

func TestBatcherKeepsLatestValuePerKey(t *testing.T) {
	var mu sync.Mutex
	var batches []map[int]float64

	b := NewBatcher(15*time.Millisecond, func(batch map[int]float64) {
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
	})

	b.Add(1, 10)
	b.Add(2, 20)
	b.Add(1, 12)

	if b.Pending() != 2 {
		t.Errorf("Expected 2 pending keys, got %d", b.Pending())
	}

	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 1 {
		t.Fatalf("Expected a single flush, got %d", len(batches))
	}
	if batches[0][1] != 12 || batches[0][2] != 20 {
		t.Errorf("Unexpected batch %v", batches[0])
	}
	if b.Pending() != 0 {
		t.Errorf("Expected nothing pending after flush, got %d", b.Pending())
	}
}

func TestBatcherFlushAndCancel(t *testing.T) {
	flushed := 0
	b := NewBatcher(time.Hour, func(batch map[string]int) {
		flushed += len(batch)
	})

	b.Flush()
	if flushed != 0 {
		t.Error("Expected empty flush to skip the callback")
	}

	b.Add("a", 1)
	b.Add("b", 2)
	b.Flush()
	if flushed != 2 {
		t.Errorf("Expected 2 flushed values, got %d", flushed)
	}

	b.Add("c", 3)
	b.Cancel()
	b.Flush()
	if flushed != 2 {
		t.Errorf("Expected cancelled values to be dropped, got %d", flushed)
	}
}

func TestMonitorRecordsDurations(t *testing.T) {
	m := NewMonitor()

	if m.GetMetric("layout") != nil {
		t.Error("Expected no metric before recording")
	}
	if got := m.Summary("layout"); got != "layout -" {
		t.Errorf("Expected placeholder summary, got %q", got)
	}

	m.RecordDuration("layout", 2*time.Millisecond)
	m.RecordDuration("layout", 4*time.Millisecond)

	metric := m.GetMetric("layout")
	if metric.Count != 2 {
		t.Errorf("Expected count 2, got %d", metric.Count)
	}
	if metric.MinTime != 2*time.Millisecond || metric.MaxTime != 4*time.Millisecond {
		t.Errorf("Unexpected min/max %v/%v", metric.MinTime, metric.MaxTime)
	}
	if metric.AverageTime() != 3*time.Millisecond {
		t.Errorf("Expected average 3ms, got %v", metric.AverageTime())
	}
	if metric.RecentAverageTime(1) != 4*time.Millisecond {
		t.Errorf("Expected recent average 4ms, got %v", metric.RecentAverageTime(1))
	}
	if !strings.HasPrefix(m.Summary("layout"), "layout 3ms") {
		t.Errorf("Unexpected summary %q", m.Summary("layout"))
	}

	stop := m.StartTimer("render")
	stop()
	if m.GetMetric("render").Count != 1 {
		t.Error("Expected StartTimer to record one sample")
	}
}

func TestMonitorSampleWindow(t *testing.T) {
	m := NewMonitor()
	for i := 0; i < 150; i++ {
		m.RecordDuration("x", time.Millisecond)
	}
	metric := m.GetMetric("x")
	if len(metric.Samples) != metric.MaxSamples {
		t.Errorf("Expected %d samples, got %d", metric.MaxSamples, len(metric.Samples))
	}
}
