// Package virtualizer computes which slice of a long, variable-height list
// must be rendered to fill a scrollable viewport.
//
// A Virtualizer owns a height per item (estimated until measured), the
// prefix-sum offset table derived from it, and the current render window.
// Hosts render the window, measure what they rendered and report the
// measurements back; the window is recomputed only when a height actually
// changed. A Virtualizer is not safe for concurrent use.
package virtualizer

import (
	"math"
	"slices"
	"sort"

	"github.com/rs/zerolog"
)

// Measurement is the measured height of a rendered item, indexed relative
// to the start of the window it was rendered in
type Measurement struct {
	Index  int
	Height float64
}

// Window is the result of a scroll update
type Window struct {
	Start       int
	End         int
	TotalHeight float64
}

// Stats is a snapshot of the virtualizer state
type Stats struct {
	Items          int
	Measured       int
	TotalHeight    float64
	ScrollTop      float64
	ViewportHeight float64
	Buffer         int
	Range          Range
}

// Option configures a Virtualizer
type Option[T any] func(*Virtualizer[T])

// WithLogger sets the logger used for reset and correction events.
// Both are logged at debug level.
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(v *Virtualizer[T]) {
		v.logger = logger
	}
}

// WithKeyFunc keys measured heights by item identity instead of position.
// When the item list is replaced, items whose key was measured before keep
// their measured height.
func WithKeyFunc[T any](fn func(T) string) Option[T] {
	return func(v *Virtualizer[T]) {
		v.keyFn = fn
	}
}

// Virtualizer tracks item heights and resolves the render window
type Virtualizer[T any] struct {
	cfg   Config
	items []T
	store heightStore
	table OffsetTable

	scrollTop float64
	rng       Range

	keyFn      func(T) string
	keys       []string
	remembered map[string]float64

	logger zerolog.Logger
}

// New creates a Virtualizer with no items
func New[T any](cfg Config, opts ...Option[T]) (*Virtualizer[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v := &Virtualizer[T]{
		cfg:    cfg,
		store:  newHeightStore(cfg.InitialItemHeight),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.keyFn != nil {
		v.remembered = make(map[string]float64)
	}
	v.table = BuildOffsets(nil)
	return v, nil
}

// SetItems replaces the item sequence, resets every height to the estimate
// (or to a remembered measurement when keyed) and returns the new total
// content height.
func (v *Virtualizer[T]) SetItems(items []T) float64 {
	v.items = slices.Clone(items)
	v.store.reset(len(v.items))

	if v.keyFn != nil {
		v.keys = make([]string, len(v.items))
		live := make(map[string]float64, len(v.items))
		for i, item := range v.items {
			key := v.keyFn(item)
			v.keys[i] = key
			if h, ok := v.remembered[key]; ok {
				v.store.restore(i, h)
				live[key] = h
			}
		}
		v.remembered = live
	}

	v.rebuild()
	v.logger.Debug().
		Int("items", len(v.items)).
		Int("restored", v.store.measured).
		Float64("total", v.table.Total).
		Msg("item list replaced")
	return v.table.Total
}

// AppendItems extends the sequence without disturbing existing positions
// and returns the new total content height.
func (v *Virtualizer[T]) AppendItems(items ...T) float64 {
	if len(items) == 0 {
		return v.table.Total
	}
	first := len(v.items)
	v.items = append(v.items, items...)
	v.store.grow(len(items))

	if v.keyFn != nil {
		for i, item := range items {
			key := v.keyFn(item)
			v.keys = append(v.keys, key)
			if h, ok := v.remembered[key]; ok {
				v.store.restore(first+i, h)
			}
		}
	}

	// Appending only adds offsets past the current total.
	for i := first; i < len(v.items); i++ {
		v.table.Offsets = append(v.table.Offsets, v.table.Total)
		v.table.Total += v.store.heights[i]
	}
	v.resolve()
	return v.table.Total
}

// ReplaceItem swaps the item at index in place. Its stored height is kept
// until the host measures the new rendering. When keyed, a key change
// moves any remembered height to the new key.
func (v *Virtualizer[T]) ReplaceItem(index int, item T) bool {
	if index < 0 || index >= len(v.items) {
		return false
	}
	v.items[index] = item
	if v.keyFn != nil {
		key := v.keyFn(item)
		if old := v.keys[index]; old != key {
			if h, ok := v.remembered[old]; ok {
				delete(v.remembered, old)
				v.remembered[key] = h
			}
			v.keys[index] = key
		}
	}
	return true
}

// OnScroll records a new scroll position and returns the render window
func (v *Virtualizer[T]) OnScroll(scrollTop float64) Window {
	if math.IsNaN(scrollTop) || scrollTop < 0 {
		scrollTop = 0
	}
	v.scrollTop = scrollTop
	v.resolve()
	return v.Window()
}

// ReportMeasurement applies measured heights for items rendered in a window
// starting at visibleStart. It returns true when any stored height changed,
// in which case offsets and the render window have already been recomputed.
// Reporting a height that is already stored is a no-op.
func (v *Virtualizer[T]) ReportMeasurement(visibleStart int, measurements []Measurement) bool {
	changed := false
	for _, m := range measurements {
		if v.apply(visibleStart+m.Index, m.Height) {
			changed = true
		}
	}
	if changed {
		v.rebuild()
	}
	return changed
}

// UpdateHeight applies an asynchronous size notification for item index
func (v *Virtualizer[T]) UpdateHeight(index int, height float64) bool {
	return v.ReportMeasurement(0, []Measurement{{Index: index, Height: height}})
}

func (v *Virtualizer[T]) apply(index int, height float64) bool {
	if index < 0 || index >= v.store.len() || !isFinite(height) || height < 0 {
		return false
	}
	if v.keyFn != nil {
		v.remembered[v.keys[index]] = height
	}
	prev := v.store.heights[index]
	if !v.store.set(index, height) {
		return false
	}
	v.logger.Debug().
		Int("index", index).
		Float64("from", prev).
		Float64("to", height).
		Msg("height corrected")
	return true
}

// rebuild recomputes the offset table and then the render window
func (v *Virtualizer[T]) rebuild() {
	v.table = BuildOffsets(v.store.heights)
	v.resolve()
}

func (v *Virtualizer[T]) resolve() {
	v.rng = ResolveRange(v.table, len(v.items), v.scrollTop, v.cfg.ViewportHeight, v.cfg.Buffer)
}

// ItemTop returns the top offset of item index, or 0 when out of range
func (v *Virtualizer[T]) ItemTop(index int) float64 {
	return v.table.Top(index)
}

// ItemHeight returns the stored height of item index, or 0 when out of range
func (v *Virtualizer[T]) ItemHeight(index int) float64 {
	if index < 0 || index >= v.store.len() {
		return 0
	}
	return v.store.heights[index]
}

// State returns whether item index has been measured
func (v *Virtualizer[T]) State(index int) HeightState {
	if index < 0 || index >= v.store.len() {
		return Estimated
	}
	return v.store.states[index]
}

// IsMeasured reports whether item index carries a measured height
func (v *Virtualizer[T]) IsMeasured(index int) bool {
	return v.State(index) == Measured
}

// IndexAt returns the item covering vertical position y, or -1 when empty
func (v *Virtualizer[T]) IndexAt(y float64) int {
	n := len(v.items)
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool {
		return v.table.Bottom(i) > y
	})
	return min(i, n-1)
}

// TotalHeight returns the sum of all stored heights
func (v *Virtualizer[T]) TotalHeight() float64 {
	return v.table.Total
}

// Offsets returns a copy of the current offset table
func (v *Virtualizer[T]) Offsets() OffsetTable {
	return OffsetTable{Offsets: slices.Clone(v.table.Offsets), Total: v.table.Total}
}

// Range returns the current render window
func (v *Virtualizer[T]) Range() Range {
	return v.rng
}

// Window returns the current render window with the total height
func (v *Virtualizer[T]) Window() Window {
	return Window{Start: v.rng.Start, End: v.rng.End, TotalHeight: v.table.Total}
}

// ScrollTop returns the last scroll position passed to OnScroll
func (v *Virtualizer[T]) ScrollTop() float64 {
	return v.scrollTop
}

// MaxScrollTop returns the largest scroll position that still fills the viewport
func (v *Virtualizer[T]) MaxScrollTop() float64 {
	return math.Max(0, v.table.Total-v.cfg.ViewportHeight)
}

// Len returns the number of items
func (v *Virtualizer[T]) Len() int {
	return len(v.items)
}

// Items returns the current item sequence. Callers must not modify it.
func (v *Virtualizer[T]) Items() []T {
	return v.items
}

// Item returns the item at index
func (v *Virtualizer[T]) Item(index int) (T, bool) {
	if index < 0 || index >= len(v.items) {
		var zero T
		return zero, false
	}
	return v.items[index], true
}

// Key returns the identity key of item index when a key function is set
func (v *Virtualizer[T]) Key(index int) (string, bool) {
	if v.keyFn == nil || index < 0 || index >= len(v.keys) {
		return "", false
	}
	return v.keys[index], true
}

// Config returns the active configuration
func (v *Virtualizer[T]) Config() Config {
	return v.cfg
}

// SetViewportHeight changes the viewport height, clamping it to at least 1
func (v *Virtualizer[T]) SetViewportHeight(height float64) {
	if !isFinite(height) || height < minViewportHeight {
		height = minViewportHeight
	}
	v.cfg.ViewportHeight = height
	v.resolve()
}

// SetBuffer changes the buffer size, clamping negative values to 0
func (v *Virtualizer[T]) SetBuffer(buffer int) {
	v.cfg.Buffer = max(0, buffer)
	v.resolve()
}

// Stats returns a snapshot of the current state
func (v *Virtualizer[T]) Stats() Stats {
	return Stats{
		Items:          len(v.items),
		Measured:       v.store.measured,
		TotalHeight:    v.table.Total,
		ScrollTop:      v.scrollTop,
		ViewportHeight: v.cfg.ViewportHeight,
		Buffer:         v.cfg.Buffer,
		Range:          v.rng,
	}
}
