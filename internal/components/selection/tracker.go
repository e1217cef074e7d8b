package selection

import (
	"sync"
)

// Tracker remembers which item is selected by its key, so the selection
// follows the item when the list is replaced or reordered
type Tracker struct {
	selectedKey string
	hasKey      bool
	keys        []string
	index       map[string]int
	selectedRow int
	mu          sync.RWMutex
}

// New creates a new selection tracker
func New() *Tracker {
	return &Tracker{
		index: make(map[string]int),
	}
}

// SetKeys replaces the row to key mapping. The first row wins when keys repeat.
func (t *Tracker) SetKeys(keys []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.keys = append(t.keys[:0], keys...)
	t.index = make(map[string]int, len(keys))
	for row, key := range keys {
		if _, exists := t.index[key]; !exists {
			t.index[key] = row
		}
	}
}

// AppendKeys extends the mapping for rows added at the end
func (t *Tracker) AppendKeys(keys ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, key := range keys {
		if _, exists := t.index[key]; !exists {
			t.index[key] = len(t.keys)
		}
		t.keys = append(t.keys, key)
	}
}

// UpdateSelection selects row and remembers its key
func (t *Tracker) UpdateSelection(row int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selectLocked(row)
}

func (t *Tracker) selectLocked(row int) {
	t.selectedRow = row
	if row >= 0 && row < len(t.keys) {
		t.selectedKey = t.keys[row]
		t.hasKey = true
	}
}

// RestoreSelection finds the previously selected key in the current
// mapping. When the item is gone the previous row is kept if it is still
// valid, otherwise the last row is selected.
func (t *Tracker) RestoreSelection() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := len(t.keys)
	if total == 0 {
		t.selectedRow = 0
		t.hasKey = false
		t.selectedKey = ""
		return 0
	}

	if t.hasKey {
		if row, ok := t.index[t.selectedKey]; ok {
			t.selectedRow = row
			return row
		}
	}

	row := t.selectedRow
	if row < 0 {
		row = 0
	}
	if row >= total {
		row = total - 1
	}
	t.selectLocked(row)
	return row
}

// MoveSelection moves the selection by delta, clamped to the mapping
func (t *Tracker) MoveSelection(delta int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := len(t.keys)
	if total == 0 {
		t.selectedRow = 0
		return 0
	}
	row := min(max(t.selectedRow+delta, 0), total-1)
	t.selectLocked(row)
	return row
}

// Clear clears all selection data
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.selectedKey = ""
	t.hasKey = false
	t.keys = nil
	t.index = make(map[string]int)
	t.selectedRow = 0
}

// Count returns the number of tracked rows
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.keys)
}
