// Package source produces list entries from files, streams and the
// Kubernetes API.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/HamStudy/kubescroll/internal/core"
)

// Source emits entries until its input ends or ctx is cancelled. Run
// returns nil on a clean end and on cancellation.
type Source interface {
	Name() string
	Run(ctx context.Context, emit func(core.Entry)) error
}

// Mode selects how text lines are grouped into entries
type Mode string

const (
	// ModeLine makes every line its own entry
	ModeLine Mode = "line"
	// ModeMultiline attaches indented lines (stack traces, wrapped JSON)
	// to the entry above them
	ModeMultiline Mode = "multiline"
	// ModeParagraph splits entries at blank lines
	ModeParagraph Mode = "paragraph"
)

// ParseMode validates a mode name; "" selects ModeMultiline
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeMultiline:
		return ModeMultiline, nil
	case ModeLine:
		return ModeLine, nil
	case ModeParagraph:
		return ModeParagraph, nil
	}
	return "", fmt.Errorf("unknown mode %q (want line, multiline or paragraph)", s)
}

// recordBuilder groups lines into entries according to a Mode
type recordBuilder struct {
	prefix     string
	kind       core.Kind
	mode       Mode
	timestamps bool
	emit       func(core.Entry)
	fields     map[string]string

	seq     int
	pending *core.Entry
	body    []string
}

func newRecordBuilder(prefix string, kind core.Kind, mode Mode, emit func(core.Entry)) *recordBuilder {
	if mode == "" {
		mode = ModeMultiline
	}
	return &recordBuilder{
		prefix: prefix,
		kind:   kind,
		mode:   mode,
		emit:   emit,
	}
}

func (b *recordBuilder) add(line string) {
	line = strings.TrimRight(line, "\r\n")

	var ts time.Time
	if b.timestamps {
		ts, line = splitTimestamp(line)
	}

	switch b.mode {
	case ModeLine:
		b.start(line, ts)
		b.flush()
	case ModeParagraph:
		if strings.TrimSpace(line) == "" {
			b.flush()
			return
		}
		if b.pending == nil {
			b.start(line, ts)
			return
		}
		b.body = append(b.body, line)
	default:
		if b.pending != nil && isContinuation(line) {
			b.body = append(b.body, line)
			return
		}
		if strings.TrimSpace(line) == "" {
			return
		}
		b.flush()
		b.start(line, ts)
	}
}

func (b *recordBuilder) start(line string, ts time.Time) {
	b.seq++
	b.pending = &core.Entry{
		Key:    fmt.Sprintf("%s#%d", b.prefix, b.seq),
		Kind:   b.kind,
		Title:  line,
		Level:  core.DetectLevel(line),
		Time:   ts,
		Fields: b.fields,
	}
	b.body = b.body[:0]
}

// flush emits the pending entry, dropping trailing blank body lines
func (b *recordBuilder) flush() {
	if b.pending == nil {
		return
	}
	end := len(b.body)
	for end > 0 && strings.TrimSpace(b.body[end-1]) == "" {
		end--
	}
	entry := *b.pending
	entry.Body = strings.Join(b.body[:end], "\n")
	if entry.Level == "" && entry.Body != "" {
		entry.Level = core.DetectLevel(entry.Body)
	}
	b.pending = nil
	b.body = b.body[:0]
	b.emit(entry)
}

func isContinuation(line string) bool {
	if line == "" {
		return true
	}
	switch line[0] {
	case ' ', '\t':
		return true
	}
	return strings.HasPrefix(line, "Caused by:") || strings.HasPrefix(line, "...")
}

// splitTimestamp strips the RFC3339 prefix the API server adds when
// timestamps are requested
func splitTimestamp(line string) (time.Time, string) {
	i := strings.IndexByte(line, ' ')
	if i <= 0 {
		return time.Time{}, line
	}
	ts, err := time.Parse(time.RFC3339Nano, line[:i])
	if err != nil {
		return time.Time{}, line
	}
	return ts, line[i+1:]
}

// readLines feeds complete lines from r to b. A final line without a
// newline is returned as the partial result so followers can complete it.
func readLines(ctx context.Context, br *bufio.Reader, partial string, b *recordBuilder) (string, error) {
	for n := 0; ; n++ {
		if n%1024 == 0 && ctx.Err() != nil {
			return partial, ctx.Err()
		}
		line, err := br.ReadString('\n')
		if err == nil {
			b.add(partial + line)
			partial = ""
			continue
		}
		partial += line
		if errors.Is(err, io.EOF) {
			return partial, io.EOF
		}
		return partial, err
	}
}

// readAll groups every line of r into entries
func readAll(ctx context.Context, r io.Reader, name string, b *recordBuilder) error {
	partial, err := readLines(ctx, bufio.NewReader(r), "", b)
	if isCancel(ctx, err) {
		return nil
	}
	finish(partial, b)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}

// finish flushes a trailing partial line and the pending record
func finish(partial string, b *recordBuilder) {
	if partial != "" {
		b.add(partial)
	}
	b.flush()
}

// isCancel reports whether a read error was caused by ctx ending; streams
// report cancellation with a variety of transport errors
func isCancel(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}
