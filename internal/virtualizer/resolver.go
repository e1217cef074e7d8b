package virtualizer

import (
	"math"
	"sort"
)

// Range is a half-open interval [Start, End) of item indices
type Range struct {
	Start int
	End   int
}

// Len returns the number of items in the range
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether index lies inside the range
func (r Range) Contains(index int) bool {
	return index >= r.Start && index < r.End
}

// ResolveRange finds the window of items that must be rendered to cover
// [scrollTop, scrollTop+viewportHeight) plus buffer items on each side.
//
// The first covered item is the first one whose bottom edge lies below
// scrollTop; the window ends at the first item whose top is at or past the
// viewport's bottom edge. Both searches are binary searches over the
// non-decreasing offsets.
func ResolveRange(table OffsetTable, itemCount int, scrollTop, viewportHeight float64, buffer int) Range {
	n := min(itemCount, table.Len())
	if n <= 0 {
		return Range{}
	}
	if math.IsNaN(scrollTop) || scrollTop < 0 {
		scrollTop = 0
	}
	if math.IsNaN(viewportHeight) || viewportHeight < 0 {
		viewportHeight = 0
	}
	buffer = max(0, min(buffer, n))

	start := sort.Search(n, func(i int) bool {
		return table.Bottom(i) > scrollTop
	})

	limit := scrollTop + viewportHeight
	end := sort.Search(n, func(i int) bool {
		return table.Offsets[i] >= limit
	})
	if end < start {
		end = start
	}

	return Range{
		Start: max(0, start-buffer),
		End:   min(n, end+buffer),
	}
}
