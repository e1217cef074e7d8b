package performance

import (
	"fmt"
	"sync"
	"time"
)

// Debouncer delays a callback until triggers stop arriving for delay
type Debouncer struct {
	delay    time.Duration
	timer    *time.Timer
	callback func()
	mutex    sync.Mutex
	pending  bool
}

// NewDebouncer creates a new debouncer with the specified delay
func NewDebouncer(delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
	}
}

// Trigger (re)starts the delay
func (d *Debouncer) Trigger() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = true

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.mutex.Lock()
		if !d.pending {
			d.mutex.Unlock()
			return
		}
		d.pending = false
		callback := d.callback
		d.mutex.Unlock()

		callback()
	})
}

// Cancel cancels any pending debounced call
func (d *Debouncer) Cancel() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Batcher coalesces bursts of keyed updates. Only the latest value per key
// is kept, and the collected batch is handed to flush once updates stop
// arriving for the configured delay.
type Batcher[K comparable, V any] struct {
	pending   map[K]V
	flush     func(map[K]V)
	debouncer *Debouncer
	mutex     sync.Mutex
}

// NewBatcher creates a batcher that calls flush after delay of quiet
func NewBatcher[K comparable, V any](delay time.Duration, flush func(map[K]V)) *Batcher[K, V] {
	b := &Batcher[K, V]{
		pending: make(map[K]V),
		flush:   flush,
	}
	b.debouncer = NewDebouncer(delay, b.Flush)
	return b
}

// Add records the latest value for key
func (b *Batcher[K, V]) Add(key K, value V) {
	b.mutex.Lock()
	b.pending[key] = value
	b.mutex.Unlock()

	b.debouncer.Trigger()
}

// Flush hands the pending batch to the flush callback immediately
func (b *Batcher[K, V]) Flush() {
	b.mutex.Lock()
	if len(b.pending) == 0 {
		b.mutex.Unlock()
		return
	}
	batch := b.pending
	b.pending = make(map[K]V)
	b.mutex.Unlock()

	b.flush(batch)
}

// Cancel drops pending values without flushing them
func (b *Batcher[K, V]) Cancel() {
	b.debouncer.Cancel()

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.pending = make(map[K]V)
}

// Pending returns the number of keys waiting to be flushed
func (b *Batcher[K, V]) Pending() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.pending)
}

// Monitor tracks how long layout and render passes take
type Monitor struct {
	metrics map[string]*Metric
	mutex   sync.RWMutex
}

// Metric represents a performance metric
type Metric struct {
	Name       string
	Count      int64
	TotalTime  time.Duration
	MinTime    time.Duration
	MaxTime    time.Duration
	LastTime   time.Duration
	Samples    []time.Duration
	MaxSamples int
}

// NewMonitor creates a new performance monitor
func NewMonitor() *Monitor {
	return &Monitor{
		metrics: make(map[string]*Metric),
	}
}

// StartTimer starts timing an operation
func (pm *Monitor) StartTimer(name string) func() {
	start := time.Now()
	return func() {
		pm.RecordDuration(name, time.Since(start))
	}
}

// RecordDuration records a duration for a metric
func (pm *Monitor) RecordDuration(name string, duration time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	metric, exists := pm.metrics[name]
	if !exists {
		metric = &Metric{
			Name:       name,
			MinTime:    duration,
			MaxTime:    duration,
			MaxSamples: 100,
			Samples:    make([]time.Duration, 0, 100),
		}
		pm.metrics[name] = metric
	}

	metric.Count++
	metric.TotalTime += duration
	metric.LastTime = duration

	if duration < metric.MinTime {
		metric.MinTime = duration
	}
	if duration > metric.MaxTime {
		metric.MaxTime = duration
	}

	if len(metric.Samples) >= metric.MaxSamples {
		metric.Samples = metric.Samples[1:]
	}
	metric.Samples = append(metric.Samples, duration)
}

// GetMetric returns a copy of a metric, or nil if it was never recorded
func (pm *Monitor) GetMetric(name string) *Metric {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	metric, exists := pm.metrics[name]
	if !exists {
		return nil
	}
	cp := *metric
	cp.Samples = append([]time.Duration(nil), metric.Samples...)
	return &cp
}

// AverageTime returns the average time for a metric
func (m *Metric) AverageTime() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.TotalTime / time.Duration(m.Count)
}

// RecentAverageTime returns the average of the last sampleCount samples
func (m *Metric) RecentAverageTime(sampleCount int) time.Duration {
	if len(m.Samples) == 0 || sampleCount <= 0 {
		return 0
	}

	start := max(0, len(m.Samples)-sampleCount)
	var total time.Duration
	for _, s := range m.Samples[start:] {
		total += s
	}
	return total / time.Duration(len(m.Samples)-start)
}

// Summary formats the recent average of a metric for a status line
func (pm *Monitor) Summary(name string) string {
	metric := pm.GetMetric(name)
	if metric == nil {
		return name + " -"
	}
	return fmt.Sprintf("%s %s", name, metric.RecentAverageTime(10).Round(time.Microsecond))
}
