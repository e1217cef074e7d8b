package core

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind identifies what produced an entry and selects its template
type Kind string

const (
	KindLine  Kind = "line"
	KindLog   Kind = "log"
	KindEvent Kind = "event"
	KindPod   Kind = "pod"
)

// Entry is one item of the scrolling list. Entries with the same Key
// replace each other; Removed entries delete the key from the list.
type Entry struct {
	Key     string            `json:"key"`
	Kind    Kind              `json:"kind"`
	Title   string            `json:"title"`
	Body    string            `json:"body,omitempty"`
	Level   string            `json:"level,omitempty"`
	Time    time.Time         `json:"time"`
	Fields  map[string]string `json:"fields,omitempty"`
	Removed bool              `json:"-"`
}

// Lines returns the number of text lines in the entry before wrapping
func (e Entry) Lines() int {
	n := 1
	if e.Body != "" {
		n += strings.Count(e.Body, "\n") + 1
	}
	return n
}

// Field returns a field value or "" when unset
func (e Entry) Field(name string) string {
	if e.Fields == nil {
		return ""
	}
	return e.Fields[name]
}

// Log levels reported by DetectLevel
const (
	LevelError = "error"
	LevelWarn  = "warn"
	LevelInfo  = "info"
	LevelDebug = "debug"
)

// levelWords are checked in order; the first whole-word match wins.
// Suffix words also match as the last part of a CamelCase identifier,
// as in IOException or ValueError.
var levelWords = []struct {
	word   string
	level  string
	suffix bool
}{
	{"fatal", LevelError, false},
	{"panic", LevelError, false},
	{"error", LevelError, true},
	{"exception", LevelError, true},
	{"warning", LevelWarn, false},
	{"warn", LevelWarn, false},
	{"info", LevelInfo, false},
	{"debug", LevelDebug, false},
	{"trace", LevelDebug, false},
}

const levelScanLimit = 256

// DetectLevel guesses the severity of a log line. JSON lines with a
// "level" or "severity" field use that value; klog headers such as
// "E0102 15:04:05" are recognised; otherwise the first level word in the
// start of the line decides. Returns "" when nothing matches.
func DetectLevel(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		if lvl := jsonLevel(trimmed); lvl != "" {
			return lvl
		}
	}
	if lvl := klogLevel(trimmed); lvl != "" {
		return lvl
	}

	if len(trimmed) > levelScanLimit {
		trimmed = trimmed[:levelScanLimit]
	}
	lower := strings.ToLower(trimmed)
	for _, w := range levelWords {
		if containsWord(trimmed, lower, w.word, w.suffix) {
			return w.level
		}
	}
	return ""
}

func jsonLevel(line string) string {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return ""
	}
	for _, key := range []string{"level", "severity", "lvl"} {
		if v, ok := fields[key].(string); ok {
			return normalizeLevel(v)
		}
	}
	return ""
}

func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case "fatal", "panic", "error", "err", "critical", "crit":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "info", "notice":
		return LevelInfo
	case "debug", "trace":
		return LevelDebug
	}
	return ""
}

// klogLevel matches the "Lmmdd hh:mm:ss" header written by klog
func klogLevel(line string) string {
	if len(line) < 6 || line[5] != ' ' {
		return ""
	}
	for i := 1; i < 5; i++ {
		if line[i] < '0' || line[i] > '9' {
			return ""
		}
	}
	switch line[0] {
	case 'E', 'F':
		return LevelError
	case 'W':
		return LevelWarn
	case 'I':
		return LevelInfo
	}
	return ""
}

// containsWord looks for word in lower, the lowercased form of s. With
// suffix set, a match may also start at a CamelCase boundary in s.
func containsWord(s, lower, word string, suffix bool) bool {
	for offset := 0; offset < len(lower); {
		i := strings.Index(lower[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		left := start == 0 || !isLetter(lower[start-1]) || (suffix && len(s) == len(lower) && camelBoundary(s, start))
		if left && (end == len(lower) || !isLetter(lower[end])) {
			return true
		}
		offset = start + 1
	}
	return false
}

// camelBoundary reports whether a new CamelCase word starts at i: an upper
// case letter after a lower case one, or the last capital of an acronym
// followed by lower case as in "IOException".
func camelBoundary(s string, i int) bool {
	if i == 0 || i >= len(s) || !isUpper(s[i]) {
		return false
	}
	prev := s[i-1]
	if isLower(prev) {
		return true
	}
	return isUpper(prev) && i+1 < len(s) && isLower(s[i+1])
}

func isLetter(b byte) bool {
	return isLower(b) || isUpper(b)
}

func isLower(b byte) bool { return b >= 'a' && b <= 'z' }

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
