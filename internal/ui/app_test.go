package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamStudy/kubescroll/internal/core"
	"github.com/HamStudy/kubescroll/internal/source"
)

func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	app, err := NewApp(ctx, opts)
	require.NoError(t, err)
	t.Cleanup(app.Stop)

	app.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	return app
}

func line(key, title string) core.Entry {
	return core.Entry{Key: key, Kind: core.KindLine, Title: title}
}

func plainView(app *App) string {
	return ansi.Strip(app.View())
}

func TestAppInitializingBeforeSize(t *testing.T) {
	app, err := NewApp(context.Background(), Options{})
	require.NoError(t, err)
	defer app.Stop()

	assert.Equal(t, "Initializing...", app.View())
	assert.Nil(t, app.run())
}

func TestAppRejectsBrokenTemplate(t *testing.T) {
	_, err := NewApp(context.Background(), Options{
		Templates: map[string]string{"line": "{{ .Title "},
	})
	assert.Error(t, err)
}

func TestAppAppliesEntries(t *testing.T) {
	app := newTestApp(t, Options{Title: "test"})

	app.Update(entriesMsg{line("a", "first"), line("b", "second"), line("c", "third")})
	view := plainView(app)

	assert.Equal(t, 3, app.List().Len())
	assert.Contains(t, view, "kubescroll · test")
	assert.Contains(t, view, "first")
	assert.Contains(t, view, "third")
	assert.Contains(t, view, "0-3/3")
	assert.Len(t, strings.Split(view, "\n"), 12)
}

func TestAppReplacesAndRemovesByKey(t *testing.T) {
	app := newTestApp(t, Options{})
	app.Update(entriesMsg{line("a", "first"), line("b", "second")})

	app.Update(entriesMsg{
		line("a", "first updated"),
		{Key: "b", Removed: true},
		line("c", "third"),
	})

	require.Equal(t, 2, app.List().Len())
	first, _ := app.List().Item(0)
	assert.Equal(t, "first updated", first.Title)
	second, _ := app.List().Item(1)
	assert.Equal(t, "c", second.Key)

	view := plainView(app)
	assert.NotContains(t, view, "second")
	assert.Contains(t, view, "first updated")
}

func TestAppRunsSourceThroughBatcher(t *testing.T) {
	src := source.NewReaderSource("stdin", strings.NewReader("alpha\nbeta\ngamma\n"), source.FileOptions{
		Mode: source.ModeLine,
	})
	app := newTestApp(t, Options{Source: src, BatchDelay: 5 * time.Millisecond})

	go app.run()()

	for {
		msg := app.listen()()
		require.NotNil(t, msg, "timed out waiting for the source")
		app.Update(msg)
		if _, ok := msg.(sourceDoneMsg); ok {
			break
		}
	}

	require.Equal(t, 3, app.List().Len())
	titles := make([]string, 0, 3)
	for _, e := range app.List().Items() {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, titles)
	assert.True(t, app.done)
	assert.Contains(t, plainView(app), "done")
}

func TestAppFlushKeepsArrivalOrder(t *testing.T) {
	app := newTestApp(t, Options{})

	app.flush(map[string]pendingEntry{
		"z": {seq: 1, entry: line("z", "one")},
		"a": {seq: 3, entry: line("a", "three")},
		"m": {seq: 2, entry: line("m", "two")},
	})
	msg := app.listen()()

	entries, ok := msg.(entriesMsg)
	require.True(t, ok)
	require.Len(t, entries, 3)
	assert.Equal(t, "one", entries[0].Title)
	assert.Equal(t, "two", entries[1].Title)
	assert.Equal(t, "three", entries[2].Title)
}

func TestAppSourceError(t *testing.T) {
	app := newTestApp(t, Options{})

	app.Update(sourceDoneMsg{err: errors.New("connection refused")})
	assert.Contains(t, plainView(app), "error: connection refused")

	app = newTestApp(t, Options{})
	app.Update(sourceDoneMsg{err: context.Canceled})
	assert.Nil(t, app.err)
	assert.True(t, app.done)
}

func TestAppExpandShowsFields(t *testing.T) {
	app := newTestApp(t, Options{})
	app.Update(entriesMsg{{
		Key:    "p",
		Kind:   core.KindLine,
		Title:  "pod event",
		Fields: map[string]string{"node": "worker-1", "phase": "Running"},
	}})
	app.View()
	before := app.List().Stats().TotalHeight

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	view := plainView(app)
	assert.Contains(t, view, "node: worker-1")
	assert.Contains(t, view, "phase: Running")
	assert.Equal(t, before+2, app.List().Stats().TotalHeight)

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotContains(t, plainView(app), "node: worker-1")
	assert.Equal(t, before, app.List().Stats().TotalHeight)
}

func TestAppWrapToggle(t *testing.T) {
	app := newTestApp(t, Options{})
	long := strings.Repeat("word ", 30)
	app.Update(entriesMsg{line("a", long)})
	app.View()
	assert.Equal(t, 1.0, app.List().Stats().TotalHeight)

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	view := plainView(app)
	assert.Greater(t, app.List().Stats().TotalHeight, 1.0)
	assert.Contains(t, view, "WRAP")
}

func TestAppThemeCycle(t *testing.T) {
	app := newTestApp(t, Options{})
	assert.Equal(t, "default", app.styles.GetTheme().Name)

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	assert.Equal(t, "light", app.styles.GetTheme().Name)

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	assert.Equal(t, "default", app.styles.GetTheme().Name)
}

func TestAppFollowAndStatus(t *testing.T) {
	app := newTestApp(t, Options{Follow: true, Debug: true})
	app.Update(tea.WindowSizeMsg{Width: 200, Height: 12})

	entries := make(entriesMsg, 30)
	for i := range entries {
		entries[i] = line(strings.Repeat("k", i+1), "row")
	}
	app.Update(entries)
	view := plainView(app)

	assert.True(t, app.List().Following())
	assert.True(t, app.List().AtBottom())
	assert.Contains(t, view, "FOLLOW")
	assert.Contains(t, view, "recv 30")
	assert.Contains(t, view, "passes")
}

func TestAppRefreshTickRelaysOutList(t *testing.T) {
	app := newTestApp(t, Options{RefreshInterval: time.Millisecond})
	app.Update(entriesMsg{line("a", "first")})
	require.Contains(t, plainView(app), "first")

	_, cmd := app.Update(refreshMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, refreshMsg{}, cmd())
	assert.Contains(t, plainView(app), "first")
}

func TestAppQuit(t *testing.T) {
	app := newTestApp(t, Options{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, app.ctx.Err())
}

func TestAppHelpToggle(t *testing.T) {
	app := newTestApp(t, Options{})
	app.View()
	short := app.List().Height()

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	app.View()
	assert.Less(t, app.List().Height(), short)
	assert.Len(t, strings.Split(plainView(app), "\n"), 12)
}

func TestAppDebouncesResize(t *testing.T) {
	app := newTestApp(t, Options{ResizeDelay: 10 * time.Millisecond})
	require.Equal(t, 60, app.width)

	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	app.Update(tea.WindowSizeMsg{Width: 90, Height: 20})
	assert.Equal(t, 60, app.width)

	msg := app.listen()()
	app.Update(msg)
	assert.Equal(t, 90, app.width)
	assert.Equal(t, 20, app.height)
}
