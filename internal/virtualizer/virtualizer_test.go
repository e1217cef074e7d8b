package virtualizer

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVirtualizer(t *testing.T, n int) *Virtualizer[int] {
	t.Helper()
	v, err := New[int](DefaultConfig())
	require.NoError(t, err)
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	v.SetItems(items)
	return v
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		valid  bool
	}{
		{name: "defaults", config: DefaultConfig(), valid: true},
		{name: "zero buffer", config: Config{ViewportHeight: 10, Buffer: 0, InitialItemHeight: 1}, valid: true},
		{name: "zero viewport", config: Config{ViewportHeight: 0, Buffer: 1, InitialItemHeight: 1}},
		{name: "negative buffer", config: Config{ViewportHeight: 10, Buffer: -1, InitialItemHeight: 1}},
		{name: "zero estimate", config: Config{ViewportHeight: 10, Buffer: 1, InitialItemHeight: 0}},
		{name: "NaN viewport", config: Config{ViewportHeight: math.NaN(), Buffer: 1, InitialItemHeight: 1}},
		{name: "infinite estimate", config: Config{ViewportHeight: 10, Buffer: 1, InitialItemHeight: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New[string](tt.config)
			if tt.valid {
				require.NoError(t, err)
				assert.NotNil(t, v)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Nil(t, v)
		})
	}
}

func TestConfigNormalize(t *testing.T) {
	got := Config{ViewportHeight: -3, Buffer: -2, InitialItemHeight: math.NaN()}.Normalize()
	assert.Equal(t, 1.0, got.ViewportHeight)
	assert.Equal(t, 0, got.Buffer)
	assert.Equal(t, float64(DefaultInitialItemHeight), got.InitialItemHeight)
	assert.NoError(t, got.Validate())

	zero := Config{}.Normalize()
	assert.Equal(t, float64(DefaultViewportHeight), zero.ViewportHeight)
	assert.Equal(t, float64(DefaultInitialItemHeight), zero.InitialItemHeight)
}

func TestSetItemsResetsHeights(t *testing.T) {
	v := newTestVirtualizer(t, 1000)

	assert.Equal(t, 50000.0, v.TotalHeight())
	assert.Equal(t, 1000, v.Len())

	v.UpdateHeight(3, 120)
	v.UpdateHeight(4, 7)
	require.True(t, v.IsMeasured(3))

	total := v.SetItems(make([]int, 20))
	assert.Equal(t, 1000.0, total)
	for i := 0; i < 20; i++ {
		assert.Equal(t, 50.0, v.ItemHeight(i))
		assert.Equal(t, Estimated, v.State(i))
	}
	assert.Equal(t, 0, v.Stats().Measured)
}

func TestOnScrollScenarios(t *testing.T) {
	v := newTestVirtualizer(t, 1000)

	w := v.OnScroll(0)
	assert.Equal(t, Window{Start: 0, End: 13, TotalHeight: 50000}, w)

	w = v.OnScroll(v.TotalHeight())
	assert.Equal(t, 1000, w.End)
	assert.Equal(t, 995, w.Start)

	w = v.OnScroll(math.NaN())
	assert.Equal(t, 0, w.Start)
	assert.Equal(t, 0.0, v.ScrollTop())
}

func TestOnScrollEmptyList(t *testing.T) {
	v := newTestVirtualizer(t, 0)
	assert.Equal(t, Window{}, v.OnScroll(100))
	assert.Equal(t, -1, v.IndexAt(0))
}

func TestMeasurementShiftsOffsets(t *testing.T) {
	v := newTestVirtualizer(t, 1000)
	v.OnScroll(0)

	assert.Equal(t, 50.0, v.ItemTop(1))

	changed := v.ReportMeasurement(0, []Measurement{{Index: 0, Height: 80}})
	assert.True(t, changed)
	assert.Equal(t, 0.0, v.ItemTop(0))
	assert.Equal(t, 80.0, v.ItemTop(1))
	assert.Equal(t, 50030.0, v.TotalHeight())
}

func TestReportMeasurementIsIdempotent(t *testing.T) {
	v := newTestVirtualizer(t, 100)
	w := v.OnScroll(1000)

	batch := []Measurement{{Index: 0, Height: 31}, {Index: 1, Height: 64}, {Index: 4, Height: 12}}
	assert.True(t, v.ReportMeasurement(w.Start, batch))
	assert.False(t, v.ReportMeasurement(w.Start, batch))

	assert.Equal(t, 31.0, v.ItemHeight(w.Start))
	assert.Equal(t, 64.0, v.ItemHeight(w.Start+1))
	assert.Equal(t, 12.0, v.ItemHeight(w.Start+4))
}

func TestReportMeasurementMatchingEstimate(t *testing.T) {
	v := newTestVirtualizer(t, 10)

	changed := v.ReportMeasurement(0, []Measurement{{Index: 2, Height: 50}})
	assert.False(t, changed)
	assert.Equal(t, Measured, v.State(2))
	assert.Equal(t, 1, v.Stats().Measured)
}

func TestReportMeasurementIgnoresInvalidInput(t *testing.T) {
	v := newTestVirtualizer(t, 10)

	changed := v.ReportMeasurement(8, []Measurement{
		{Index: 5, Height: 10},          // beyond the list
		{Index: -20, Height: 10},        // before the list
		{Index: 0, Height: -1},          // negative
		{Index: 1, Height: math.NaN()},  // not finite
		{Index: 1, Height: math.Inf(1)}, // not finite
	})
	assert.False(t, changed)
	assert.Equal(t, 500.0, v.TotalHeight())
}

func TestReportMeasurementRecomputesRange(t *testing.T) {
	v := newTestVirtualizer(t, 100)
	w := v.OnScroll(0)
	require.Equal(t, Range{0, 13}, Range{w.Start, w.End})

	// Everything in the window turns out to be tiny, so more items fit.
	var batch []Measurement
	for i := 0; i < w.End-w.Start; i++ {
		batch = append(batch, Measurement{Index: i, Height: 10})
	}
	require.True(t, v.ReportMeasurement(w.Start, batch))

	r := v.Range()
	assert.Equal(t, 0, r.Start)
	// 13 items of 10 cover 130, the next estimated items of 50 cover the rest
	// of 400: items 13..18 (tops 130..380) plus buffer 5.
	assert.Equal(t, 24, r.End)
}

func TestHeightStateMachine(t *testing.T) {
	v := newTestVirtualizer(t, 3)

	assert.Equal(t, Estimated, v.State(1))
	assert.Equal(t, "estimated", v.State(1).String())

	assert.True(t, v.UpdateHeight(1, 10))
	assert.Equal(t, Measured, v.State(1))

	assert.True(t, v.UpdateHeight(1, 11))
	assert.Equal(t, Measured, v.State(1))
	assert.Equal(t, "measured", v.State(1).String())

	assert.False(t, v.UpdateHeight(1, 11))
	assert.Equal(t, 1, v.Stats().Measured)
}

func TestOutOfRangeLookups(t *testing.T) {
	v := newTestVirtualizer(t, 3)

	assert.Equal(t, 0.0, v.ItemTop(-1))
	assert.Equal(t, 0.0, v.ItemTop(3))
	assert.Equal(t, 0.0, v.ItemHeight(99))
	assert.False(t, v.IsMeasured(99))

	_, ok := v.Item(5)
	assert.False(t, ok)
	item, ok := v.Item(2)
	assert.True(t, ok)
	assert.Equal(t, 2, item)
}

func TestAppendItemsPreservesMeasurements(t *testing.T) {
	v := newTestVirtualizer(t, 3)
	v.UpdateHeight(0, 10)
	v.UpdateHeight(2, 5)

	total := v.AppendItems(3, 4)
	assert.Equal(t, 10.0+50+5+50+50, total)
	assert.Equal(t, 5, v.Len())
	assert.Equal(t, 65.0, v.ItemTop(3))
	assert.Equal(t, 115.0, v.ItemTop(4))
	assert.Equal(t, Measured, v.State(2))
	assert.Equal(t, Estimated, v.State(4))

	// The incremental offsets match a full rebuild.
	heights := []float64{10, 50, 5, 50, 50}
	assert.Equal(t, BuildOffsets(heights), v.Offsets())

	assert.Equal(t, total, v.AppendItems())
}

func TestKeyedIdentitySurvivesReorder(t *testing.T) {
	type row struct {
		id   string
		text string
	}
	v, err := New[row](DefaultConfig(), WithKeyFunc(func(r row) string { return r.id }))
	require.NoError(t, err)

	v.SetItems([]row{{"a", "x"}, {"b", "y"}, {"c", "z"}})
	v.UpdateHeight(0, 10) // a
	v.UpdateHeight(2, 30) // c

	v.SetItems([]row{{"c", "z"}, {"d", "w"}, {"a", "x"}})
	assert.Equal(t, 30.0, v.ItemHeight(0))
	assert.Equal(t, 50.0, v.ItemHeight(1))
	assert.Equal(t, 10.0, v.ItemHeight(2))
	assert.Equal(t, Measured, v.State(0))
	assert.Equal(t, Estimated, v.State(1))
	assert.Equal(t, 90.0, v.TotalHeight())

	key, ok := v.Key(1)
	assert.True(t, ok)
	assert.Equal(t, "d", key)

	// b disappeared from the list and is forgotten.
	v.SetItems([]row{{"b", "y"}})
	assert.Equal(t, 50.0, v.ItemHeight(0))
}

func TestPositionalIdentityReassignsNothing(t *testing.T) {
	v := newTestVirtualizer(t, 3)
	v.UpdateHeight(0, 10)

	_, ok := v.Key(0)
	assert.False(t, ok)

	v.SetItems([]int{2, 1, 0})
	assert.Equal(t, 50.0, v.ItemHeight(0))
}

func TestIndexAt(t *testing.T) {
	v := newTestVirtualizer(t, 4)
	v.UpdateHeight(1, 100)

	tests := []struct {
		y        float64
		expected int
	}{
		{y: 0, expected: 0},
		{y: 49, expected: 0},
		{y: 50, expected: 1},
		{y: 149, expected: 1},
		{y: 150, expected: 2},
		{y: 10000, expected: 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("y=%v", tt.y), func(t *testing.T) {
			assert.Equal(t, tt.expected, v.IndexAt(tt.y))
		})
	}
}

func TestRuntimeSettersNormalize(t *testing.T) {
	v := newTestVirtualizer(t, 100)

	v.SetViewportHeight(-10)
	assert.Equal(t, 1.0, v.Config().ViewportHeight)
	r := v.Range()
	assert.True(t, r.Start <= r.End)

	v.SetBuffer(-3)
	assert.Equal(t, 0, v.Config().Buffer)
	assert.Equal(t, Range{0, 1}, v.Range())

	v.SetViewportHeight(100)
	v.SetBuffer(1)
	assert.Equal(t, Range{0, 3}, v.Range())
	assert.Equal(t, 4900.0, v.MaxScrollTop())
}

func TestStats(t *testing.T) {
	v := newTestVirtualizer(t, 20)
	v.OnScroll(100)
	v.UpdateHeight(2, 60)

	stats := v.Stats()
	assert.Equal(t, 20, stats.Items)
	assert.Equal(t, 1, stats.Measured)
	assert.Equal(t, 1010.0, stats.TotalHeight)
	assert.Equal(t, 100.0, stats.ScrollTop)
	assert.Equal(t, 400.0, stats.ViewportHeight)
	assert.Equal(t, 5, stats.Buffer)
	assert.Equal(t, v.Range(), stats.Range)
}

func TestLoggerReceivesEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)

	v, err := New[int](DefaultConfig(), WithLogger[int](logger))
	require.NoError(t, err)
	v.SetItems([]int{1, 2, 3})
	v.UpdateHeight(1, 70)

	out := buf.String()
	assert.True(t, strings.Contains(out, "item list replaced"))
	assert.True(t, strings.Contains(out, "height corrected"))
}

func TestReplaceItemKeepsHeight(t *testing.T) {
	type row struct{ id, text string }
	v, err := New[row](DefaultConfig(), WithKeyFunc(func(r row) string { return r.id }))
	require.NoError(t, err)

	v.SetItems([]row{{"a", "x"}, {"b", "y"}})
	v.UpdateHeight(1, 20)

	assert.True(t, v.ReplaceItem(1, row{"b", "updated"}))
	item, _ := v.Item(1)
	assert.Equal(t, "updated", item.text)
	assert.Equal(t, 20.0, v.ItemHeight(1))
	assert.Equal(t, Measured, v.State(1))

	assert.True(t, v.ReplaceItem(1, row{"b2", "renamed"}))
	key, _ := v.Key(1)
	assert.Equal(t, "b2", key)

	v.SetItems([]row{{"b2", "renamed"}})
	assert.Equal(t, 20.0, v.ItemHeight(0))

	assert.False(t, v.ReplaceItem(5, row{}))
	assert.False(t, v.ReplaceItem(-1, row{}))
}
