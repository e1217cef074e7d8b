package virtualizer

// OffsetTable holds the cumulative top offset of every item.
// Offsets[i] is the sum of the heights of items 0..i-1, so Offsets[0] is
// always 0 and the table is non-decreasing for non-negative heights.
type OffsetTable struct {
	Offsets []float64
	Total   float64
}

// BuildOffsets turns a height-per-item list into a prefix-sum table
func BuildOffsets(heights []float64) OffsetTable {
	offsets := make([]float64, len(heights))
	var total float64
	for i, h := range heights {
		offsets[i] = total
		total += h
	}
	return OffsetTable{Offsets: offsets, Total: total}
}

// Len returns the number of items in the table
func (t OffsetTable) Len() int {
	return len(t.Offsets)
}

// Top returns the top offset of item i, or 0 when i is out of range
func (t OffsetTable) Top(i int) float64 {
	if i < 0 || i >= len(t.Offsets) {
		return 0
	}
	return t.Offsets[i]
}

// Bottom returns the bottom edge of item i, which is the top of item i+1
// or the total height for the last item.
func (t OffsetTable) Bottom(i int) float64 {
	if i < 0 || i >= len(t.Offsets) {
		return 0
	}
	if i == len(t.Offsets)-1 {
		return t.Total
	}
	return t.Offsets[i+1]
}
