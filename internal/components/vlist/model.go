// Package vlist is a scrollable Bubble Tea list of variable-height items.
//
// Only the items inside the virtualizer's render window are rendered. Each
// layout renders the window, measures the renderings with lipgloss and
// reports the heights back until the window stops moving, then slices the
// visible rows out of the rendered items.
package vlist

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"github.com/HamStudy/kubescroll/internal/components/performance"
	"github.com/HamStudy/kubescroll/internal/components/selection"
	"github.com/HamStudy/kubescroll/internal/components/style"
	"github.com/HamStudy/kubescroll/internal/virtualizer"
)

// RenderFunc renders one item at the given width. The result may span
// several lines; an empty string hides the item.
type RenderFunc[T any] func(item T, index, width int, selected bool) string

// Default option values
const (
	DefaultMaxLayoutPasses = 4
	DefaultWheelStep       = 3
	DefaultItemHeight      = 1
)

// Options configures a Model
type Options struct {
	Buffer            int
	InitialItemHeight float64
	// StableKeys keeps measured heights by item key across SetItems
	StableKeys      bool
	MaxLayoutPasses int
	CacheSize       int
	// CacheTTL bounds how long a rendering is reused; zero keeps it until evicted
	CacheTTL  time.Duration
	WheelStep int
	Scrollbar bool
	EmptyText string
	Styles    *style.Manager
	Logger    zerolog.Logger
}

// DefaultOptions returns options suited to terminal rows
func DefaultOptions() Options {
	return Options{
		Buffer:            virtualizer.DefaultBuffer,
		InitialItemHeight: DefaultItemHeight,
		MaxLayoutPasses:   DefaultMaxLayoutPasses,
		CacheSize:         performance.DefaultCacheSize,
		CacheTTL:          performance.DefaultCacheTTL,
		WheelStep:         DefaultWheelStep,
		Scrollbar:         true,
		Logger:            zerolog.Nop(),
	}
}

// Stats describes the list after the last layout
type Stats struct {
	virtualizer.Stats
	Passes int
	Cache  performance.CacheStats
}

// Model is a virtualized list of T
type Model[T any] struct {
	v       *virtualizer.Virtualizer[T]
	render  RenderFunc[T]
	keyFn   func(T) string
	index   map[string]int
	cache   *performance.RenderCache
	monitor *performance.Monitor
	tracker *selection.Tracker
	styles  *style.Manager
	keys    KeyMap
	logger  zerolog.Logger

	width     int
	height    int
	scrollTop int
	selected  int
	follow    bool
	reveal    bool

	scrollbar bool
	wheelStep int
	maxPasses int
	passes    int
	emptyText string

	dirty        bool
	lines        []string
	measurements []virtualizer.Measurement
}

// New creates an empty list. keyFn identifies items for selection, render
// caching and Upsert; when nil, items are identified by position.
func New[T any](render RenderFunc[T], keyFn func(T) string, opts Options) (*Model[T], error) {
	if render == nil {
		return nil, errors.New("render function is required")
	}
	if opts.InitialItemHeight <= 0 {
		opts.InitialItemHeight = DefaultItemHeight
	}
	if opts.MaxLayoutPasses <= 0 {
		opts.MaxLayoutPasses = DefaultMaxLayoutPasses
	}
	if opts.WheelStep <= 0 {
		opts.WheelStep = DefaultWheelStep
	}
	if opts.Styles == nil {
		opts.Styles = style.NewManager()
	}

	cfg := virtualizer.Config{
		ViewportHeight:    1,
		Buffer:            opts.Buffer,
		InitialItemHeight: opts.InitialItemHeight,
	}.Normalize()
	vopts := []virtualizer.Option[T]{virtualizer.WithLogger[T](opts.Logger)}
	if opts.StableKeys && keyFn != nil {
		vopts = append(vopts, virtualizer.WithKeyFunc(keyFn))
	}
	v, err := virtualizer.New(cfg, vopts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	return &Model[T]{
		v:         v,
		render:    render,
		keyFn:     keyFn,
		index:     make(map[string]int),
		cache:     performance.NewRenderCache(opts.CacheSize, opts.CacheTTL),
		monitor:   performance.NewMonitor(),
		tracker:   selection.New(),
		styles:    opts.Styles,
		keys:      DefaultKeyMap(),
		logger:    opts.Logger,
		scrollbar: opts.Scrollbar,
		wheelStep: opts.WheelStep,
		maxPasses: opts.MaxLayoutPasses,
		emptyText: opts.EmptyText,
		dirty:     true,
	}, nil
}

// Init implements the Bubble Tea component contract
func (m *Model[T]) Init() tea.Cmd {
	return nil
}

// Update handles navigation keys and the mouse wheel
func (m *Model[T]) Update(msg tea.Msg) (*Model[T], tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.moveSelection(-1)
		case key.Matches(msg, m.keys.Down):
			m.moveSelection(1)
		case key.Matches(msg, m.keys.PageUp):
			m.page(-m.height)
		case key.Matches(msg, m.keys.PageDown):
			m.page(m.height)
		case key.Matches(msg, m.keys.HalfUp):
			m.page(-max(1, m.height/2))
		case key.Matches(msg, m.keys.HalfDown):
			m.page(max(1, m.height/2))
		case key.Matches(msg, m.keys.Top):
			m.GotoTop()
		case key.Matches(msg, m.keys.Bottom):
			m.GotoBottom()
		case key.Matches(msg, m.keys.Follow):
			m.SetFollow(!m.follow)
		}

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			break
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.ScrollBy(-m.wheelStep)
		case tea.MouseButtonWheelDown:
			m.ScrollBy(m.wheelStep)
		}
	}
	return m, nil
}

// View renders the visible rows
func (m *Model[T]) View() string {
	if m.dirty {
		m.layout()
	}
	return strings.Join(m.lines, "\n")
}

// SetItems replaces the list. The selection follows its item by key.
func (m *Model[T]) SetItems(items []T) {
	if m.keyFn == nil {
		m.cache.Clear()
	}
	m.v.SetItems(items)

	keys := make([]string, len(items))
	m.index = make(map[string]int, len(items))
	for i, item := range items {
		keys[i] = m.keyOf(item, i)
		if _, exists := m.index[keys[i]]; !exists {
			m.index[keys[i]] = i
		}
	}
	m.tracker.SetKeys(keys)
	m.selected = m.tracker.RestoreSelection()
	if m.follow {
		m.selectLast()
	}
	m.dirty = true
}

// AppendItems adds items at the end
func (m *Model[T]) AppendItems(items ...T) {
	if len(items) == 0 {
		return
	}
	first := m.v.Len()
	m.v.AppendItems(items...)

	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = m.keyOf(item, first+i)
		if _, exists := m.index[keys[i]]; !exists {
			m.index[keys[i]] = first + i
		}
	}
	m.tracker.AppendKeys(keys...)
	if first == 0 {
		m.selected = m.tracker.RestoreSelection()
	}
	if m.follow {
		m.selectLast()
	}
	m.dirty = true
}

// ReplaceItem swaps the item at index and drops its cached rendering
func (m *Model[T]) ReplaceItem(index int, item T) bool {
	old, ok := m.v.Item(index)
	if !ok {
		return false
	}
	oldKey := m.keyOf(old, index)
	newKey := m.keyOf(item, index)
	m.v.ReplaceItem(index, item)
	m.cache.Invalidate(oldKey)
	if newKey != oldKey {
		m.cache.Invalidate(newKey)
		if m.index[oldKey] == index {
			delete(m.index, oldKey)
		}
		if _, exists := m.index[newKey]; !exists {
			m.index[newKey] = index
		}
	}
	m.dirty = true
	return true
}

// Upsert replaces the item with the same key or appends it. It reports
// the item's index and whether it was appended.
func (m *Model[T]) Upsert(item T) (int, bool) {
	if m.keyFn != nil {
		if i, ok := m.index[m.keyFn(item)]; ok {
			m.ReplaceItem(i, item)
			return i, false
		}
	}
	m.AppendItems(item)
	return m.v.Len() - 1, true
}

// Remove drops the items with the given keys and returns how many were removed
func (m *Model[T]) Remove(keys ...string) int {
	if m.keyFn == nil || len(keys) == 0 {
		return 0
	}
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		if _, ok := m.index[k]; ok {
			drop[k] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}

	items := m.v.Items()
	kept := make([]T, 0, len(items)-len(drop))
	for _, item := range items {
		if !drop[m.keyFn(item)] {
			kept = append(kept, item)
		}
	}
	for k := range drop {
		m.cache.Invalidate(k)
	}
	removed := len(items) - len(kept)
	m.SetItems(kept)
	return removed
}

// Invalidate drops the cached rendering of item index
func (m *Model[T]) Invalidate(index int) {
	if item, ok := m.v.Item(index); ok {
		m.cache.Invalidate(m.keyOf(item, index))
		m.dirty = true
	}
}

// Refresh lays the list out again on the next View. Items whose cached
// rendering has expired are rendered again.
func (m *Model[T]) Refresh() {
	m.dirty = true
}

// InvalidateAll drops every cached rendering
func (m *Model[T]) InvalidateAll() {
	m.cache.Clear()
	m.dirty = true
}

// SetSize sets the list dimensions in cells
func (m *Model[T]) SetSize(width, height int) {
	width, height = max(0, width), max(0, height)
	if width == m.width && height == m.height {
		return
	}
	m.width, m.height = width, height
	m.v.SetViewportHeight(float64(height))
	m.dirty = true
}

// Width returns the list width
func (m *Model[T]) Width() int {
	return m.width
}

// Height returns the list height
func (m *Model[T]) Height() int {
	return m.height
}

// Len returns the number of items
func (m *Model[T]) Len() int {
	return m.v.Len()
}

// Items returns the items. Callers must not modify the slice.
func (m *Model[T]) Items() []T {
	return m.v.Items()
}

// Item returns the item at index
func (m *Model[T]) Item(index int) (T, bool) {
	return m.v.Item(index)
}

// Selected returns the selected item
func (m *Model[T]) Selected() (T, bool) {
	return m.v.Item(m.selected)
}

// SelectedIndex returns the index of the selected item
func (m *Model[T]) SelectedIndex() int {
	return m.selected
}

// Select selects item index and scrolls it into view
func (m *Model[T]) Select(index int) {
	n := m.v.Len()
	if n == 0 {
		return
	}
	index = min(max(index, 0), n-1)
	if index != n-1 {
		m.follow = false
	}
	m.setSelected(index)
	m.reveal = true
	m.dirty = true
}

// ScrollTop returns the first visible row
func (m *Model[T]) ScrollTop() int {
	return m.scrollTop
}

// ScrollTo scrolls so row is the first visible row
func (m *Model[T]) ScrollTo(row int) {
	if row < m.scrollTop {
		m.follow = false
	}
	m.scrollTop = max(0, row)
	m.reveal = false
	m.dirty = true
}

// ScrollBy scrolls by delta rows. The selection moves onto the screen
// when it scrolls out of view.
func (m *Model[T]) ScrollBy(delta int) {
	if delta == 0 {
		return
	}
	m.ScrollTo(m.scrollTop + delta)
	m.layout()
	m.keepSelectionVisible()
}

// GotoTop selects the first item and scrolls to the top
func (m *Model[T]) GotoTop() {
	m.follow = false
	m.scrollTop = 0
	m.setSelected(0)
	m.reveal = true
	m.dirty = true
}

// GotoBottom selects the last item and scrolls to the bottom
func (m *Model[T]) GotoBottom() {
	m.selectLast()
	m.scrollTop = math.MaxInt32
	m.reveal = true
	m.dirty = true
}

// SetFollow keeps the list pinned to its last item as items arrive
func (m *Model[T]) SetFollow(follow bool) {
	m.follow = follow
	if follow {
		m.selectLast()
		m.reveal = true
	}
	m.dirty = true
}

// Following reports whether follow mode is on
func (m *Model[T]) Following() bool {
	return m.follow
}

// AtBottom reports whether the last row is visible
func (m *Model[T]) AtBottom() bool {
	return m.scrollTop >= m.maxScrollTop()
}

// KeyMap returns the navigation bindings
func (m *Model[T]) KeyMap() KeyMap {
	return m.keys
}

// SetBuffer changes how many items are rendered beyond each viewport edge
func (m *Model[T]) SetBuffer(buffer int) {
	m.v.SetBuffer(buffer)
	m.dirty = true
}

// Stats returns the state after the last layout
func (m *Model[T]) Stats() Stats {
	return Stats{
		Stats:  m.v.Stats(),
		Passes: m.passes,
		Cache:  m.cache.Stats(),
	}
}

// Monitor returns the render timing monitor
func (m *Model[T]) Monitor() *performance.Monitor {
	return m.monitor
}

func (m *Model[T]) keyOf(item T, index int) string {
	if m.keyFn != nil {
		return m.keyFn(item)
	}
	return "#" + strconv.Itoa(index)
}

func (m *Model[T]) setSelected(index int) {
	m.selected = index
	m.tracker.UpdateSelection(index)
}

func (m *Model[T]) selectLast() {
	if n := m.v.Len(); n > 0 {
		m.setSelected(n - 1)
	}
}

func (m *Model[T]) moveSelection(delta int) {
	if delta < 0 {
		m.follow = false
	}
	m.selected = m.tracker.MoveSelection(delta)
	m.reveal = true
	m.dirty = true
}

// page scrolls by delta rows and keeps the selection on screen
func (m *Model[T]) page(delta int) {
	if m.v.Len() == 0 || delta == 0 {
		return
	}
	m.layout()
	before := m.scrollTop
	m.ScrollBy(delta)
	if delta > 0 && m.scrollTop == before {
		m.selectLast()
		m.dirty = true
	}
	if delta < 0 && m.scrollTop == before {
		m.setSelected(0)
		m.dirty = true
	}
}

func (m *Model[T]) keepSelectionVisible() {
	if m.v.Len() == 0 || m.visible(m.selected) {
		return
	}
	m.setSelected(m.firstVisible())
	m.dirty = true
}

func (m *Model[T]) visible(index int) bool {
	top := int(m.v.ItemTop(index))
	bottom := top + int(math.Ceil(m.v.ItemHeight(index)))
	return bottom > m.scrollTop && top < m.scrollTop+m.height
}

func (m *Model[T]) firstVisible() int {
	i := m.v.IndexAt(float64(m.scrollTop))
	for i+1 < m.v.Len() && m.v.ItemHeight(i) == 0 {
		i++
	}
	return max(i, 0)
}

func (m *Model[T]) contentWidth() int {
	w := m.width - gutterWidth
	if m.scrollbar {
		w--
	}
	return max(1, w)
}

func (m *Model[T]) maxScrollTop() int {
	return int(math.Ceil(m.v.MaxScrollTop()))
}

// renderItem renders item index through the cache
func (m *Model[T]) renderItem(index int) performance.Rendered {
	item, ok := m.v.Item(index)
	if !ok {
		return performance.Rendered{}
	}
	ck := performance.CacheKey{
		Key:      m.keyOf(item, index),
		Width:    m.contentWidth(),
		Selected: index == m.selected,
	}
	if r, ok := m.cache.Get(ck); ok {
		return r
	}

	stop := m.monitor.StartTimer("render")
	content := m.render(item, index, ck.Width, ck.Selected)
	stop()

	r := performance.Rendered{Content: content}
	if content != "" {
		r.Height = lipgloss.Height(content)
	}
	m.cache.Put(ck, index, r)
	return r
}

// measure renders [start, end) and reports the heights
func (m *Model[T]) measure(start, end int) bool {
	ms := m.measurements[:0]
	for i := start; i < end; i++ {
		r := m.renderItem(i)
		ms = append(ms, virtualizer.Measurement{Index: i - start, Height: float64(r.Height)})
	}
	m.measurements = ms
	return m.v.ReportMeasurement(start, ms)
}

// layout renders, measures and repositions until nothing moves
func (m *Model[T]) layout() {
	defer m.monitor.StartTimer("layout")()

	settled := false
	passes := 0
	for passes < m.maxPasses {
		passes++
		m.clampScroll()
		w := m.v.OnScroll(float64(m.scrollTop))
		m.cache.SetRenderRange(w.Start, w.End)

		changed := m.measure(w.Start, w.End)
		if m.reveal && m.v.Len() > 0 {
			r := m.renderItem(m.selected)
			if m.v.UpdateHeight(m.selected, float64(r.Height)) {
				changed = true
			}
		}

		before := m.scrollTop
		m.settle()
		if !changed && m.scrollTop == before {
			settled = true
			break
		}
	}
	if !settled {
		m.clampScroll()
		m.v.OnScroll(float64(m.scrollTop))
		m.logger.Debug().
			Int("passes", passes).
			Int("scrollTop", m.scrollTop).
			Msg("layout did not settle")
	}

	m.passes = passes
	m.reveal = false
	m.compose()
	m.dirty = false
}

// settle applies follow mode and selection reveal to the scroll position
func (m *Model[T]) settle() {
	switch {
	case m.follow:
		m.scrollTop = m.maxScrollTop()
	case m.reveal && m.v.Len() > 0:
		top := int(m.v.ItemTop(m.selected))
		bottom := top + int(math.Ceil(m.v.ItemHeight(m.selected)))
		if top < m.scrollTop {
			m.scrollTop = top
		} else if bottom > m.scrollTop+m.height {
			m.scrollTop = min(top, bottom-m.height)
		}
	}
	m.clampScroll()
}

func (m *Model[T]) clampScroll() {
	m.scrollTop = min(max(m.scrollTop, 0), m.maxScrollTop())
}

const gutterWidth = 1

// compose slices the visible rows out of the rendered window
func (m *Model[T]) compose() {
	width := m.contentWidth()
	lines := make([]string, 0, m.height)

	if m.v.Len() == 0 && m.emptyText != "" && m.height > 0 {
		lines = append(lines, " "+fit(m.styles.Muted().Render(m.emptyText), width))
	}

	rng := m.v.Range()
	skip := m.scrollTop - int(m.v.ItemTop(rng.Start))
	for i := rng.Start; i < rng.End && len(lines) < m.height; i++ {
		r := m.renderItem(i)
		if r.Height == 0 {
			continue
		}
		gutter := " "
		if i == m.selected {
			gutter = m.styles.Gutter(true).Render("▌")
		}
		for _, line := range strings.Split(r.Content, "\n") {
			if skip > 0 {
				skip--
				continue
			}
			if len(lines) == m.height {
				break
			}
			lines = append(lines, gutter+fit(line, width))
		}
	}

	blank := strings.Repeat(" ", width+gutterWidth)
	for len(lines) < m.height {
		lines = append(lines, blank)
	}
	if m.scrollbar {
		m.drawScrollbar(lines)
	}
	m.lines = lines
}

func (m *Model[T]) drawScrollbar(lines []string) {
	track, thumb := m.styles.Scrollbar()
	pos, size := thumbPosition(len(lines), m.v.TotalHeight(), m.scrollTop)
	for i := range lines {
		if i >= pos && i < pos+size {
			lines[i] += thumb.Render("┃")
		} else {
			lines[i] += track.Render("│")
		}
	}
}

// thumbPosition places a scrollbar thumb on a track of height rows
func thumbPosition(height int, total float64, scrollTop int) (pos, size int) {
	if height <= 0 || total <= float64(height) {
		return 0, height
	}
	size = max(1, int(float64(height)*float64(height)/total))
	travel := total - float64(height)
	pos = int(math.Round(float64(scrollTop) / travel * float64(height-size)))
	return min(max(pos, 0), height-size), size
}

// fit truncates or pads line to exactly width cells
func fit(line string, width int) string {
	line = ansi.Truncate(line, width, "")
	if w := ansi.StringWidth(line); w < width {
		line += strings.Repeat(" ", width-w)
	}
	return line
}
