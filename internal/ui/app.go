package ui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"github.com/HamStudy/kubescroll/internal/components/performance"
	"github.com/HamStudy/kubescroll/internal/components/style"
	"github.com/HamStudy/kubescroll/internal/components/vlist"
	"github.com/HamStudy/kubescroll/internal/core"
	"github.com/HamStudy/kubescroll/internal/source"
)

// Default timings
const (
	DefaultBatchDelay  = 30 * time.Millisecond
	DefaultResizeDelay = 50 * time.Millisecond
	// DefaultRefreshInterval re-renders the list so relative ages stay current
	DefaultRefreshInterval = 30 * time.Second
)

// themeCycle is the order the theme key steps through
var themeCycle = []string{"default", "light", "high-contrast"}

// Options configures an App
type Options struct {
	Title     string
	Source    source.Source
	List      vlist.Options
	Templates map[string]string
	Styles    *style.Manager
	Wrap      bool
	Follow    bool
	Debug     bool
	// BatchDelay is how long entries are collected before the list is updated
	BatchDelay time.Duration
	// ResizeDelay debounces terminal resizes; zero applies them immediately
	ResizeDelay time.Duration
	// RefreshInterval is how often the list is laid out again without input
	RefreshInterval time.Duration
	Logger          zerolog.Logger
}

// entriesMsg carries a batch of entries in arrival order
type entriesMsg []core.Entry

// sourceDoneMsg reports that the source stopped
type sourceDoneMsg struct{ err error }

// resizeMsg is a debounced terminal resize
type resizeMsg struct{ width, height int }

// refreshMsg is the periodic refresh tick
type refreshMsg struct{}

// pendingEntry remembers arrival order across batch coalescing
type pendingEntry struct {
	seq   uint64
	entry core.Entry
}

// App is the main application model: a header, the entry list and a
// status bar
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	keys   KeyMap
	help   help.Model
	styles *style.Manager
	render *renderer
	list   *vlist.Model[core.Entry]
	logger zerolog.Logger

	msgs    chan tea.Msg
	batcher *performance.Batcher[string, pendingEntry]
	resize  *performance.Debouncer
	seq     atomic.Uint64

	sizeMu      sync.Mutex
	pendingSize resizeMsg

	width    int
	height   int
	ready    bool
	done     bool
	err      error
	received int
	theme    int
	showHelp bool
}

// NewApp creates the application for one entry source
func NewApp(ctx context.Context, opts Options) (*App, error) {
	if opts.Styles == nil {
		opts.Styles = style.NewManager()
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = DefaultBatchDelay
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.Title == "" && opts.Source != nil {
		opts.Title = opts.Source.Name()
	}

	r, err := newRenderer(opts.Styles, opts.Templates, opts.Wrap, opts.Logger)
	if err != nil {
		return nil, err
	}

	listOpts := opts.List
	listOpts.Styles = opts.Styles
	listOpts.Logger = opts.Logger.With().Str("component", "vlist").Logger()
	if listOpts.EmptyText == "" {
		listOpts.EmptyText = "waiting for entries..."
	}
	list, err := vlist.New(r.Render, entryKey, listOpts)
	if err != nil {
		return nil, err
	}
	list.SetFollow(opts.Follow)

	ctx, cancel := context.WithCancel(ctx)
	a := &App{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		styles: opts.Styles,
		render: r,
		list:   list,
		logger: opts.Logger,
		msgs:   make(chan tea.Msg, 16),
	}
	for i, name := range themeCycle {
		if name == opts.Styles.GetTheme().Name {
			a.theme = i
		}
	}
	a.batcher = performance.NewBatcher(opts.BatchDelay, a.flush)
	a.resize = performance.NewDebouncer(opts.ResizeDelay, a.applyPendingSize)
	return a, nil
}

// Init starts the source, the message pump and the refresh tick
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.run(), a.listen(), a.tick())
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesMsg:
		a.apply(msg)
		return a, a.listen()

	case sourceDoneMsg:
		a.done = true
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			a.err = msg.err
			a.logger.Error().Err(msg.err).Msg("source stopped")
		}
		return a, a.listen()

	case resizeMsg:
		a.setSize(msg.width, msg.height)
		return a, a.listen()

	case refreshMsg:
		a.list.Refresh()
		return a, a.tick()

	case tea.WindowSizeMsg:
		if !a.ready || a.opts.ResizeDelay <= 0 {
			a.setSize(msg.Width, msg.Height)
			return a, nil
		}
		a.sizeMu.Lock()
		a.pendingSize = resizeMsg{width: msg.Width, height: msg.Height}
		a.sizeMu.Unlock()
		a.resize.Trigger()
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			a.Stop()
			return a, tea.Quit

		case key.Matches(msg, a.keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil

		case key.Matches(msg, a.keys.Expand):
			if e, ok := a.list.Selected(); ok {
				a.render.toggle(e.Key)
				a.list.Invalidate(a.list.SelectedIndex())
				a.list.Select(a.list.SelectedIndex())
			}
			return a, nil

		case key.Matches(msg, a.keys.Wrap):
			a.render.wrap = !a.render.wrap
			a.list.InvalidateAll()
			return a, nil

		case key.Matches(msg, a.keys.Theme):
			a.nextTheme()
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

// View renders the application
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	header := a.headerView()
	helpView := a.help.View(a.keys)
	chrome := lipgloss.Height(header) + 1 + lipgloss.Height(helpView)
	a.list.SetSize(a.width, max(1, a.height-chrome))

	body := a.list.View()
	return lipgloss.JoinVertical(lipgloss.Left, header, body, a.statusView(), helpView)
}

// Stop cancels the source and drops undelivered entries
func (a *App) Stop() {
	a.cancel()
	a.batcher.Cancel()
	a.resize.Cancel()
}

// List exposes the entry list
func (a *App) List() *vlist.Model[core.Entry] {
	return a.list
}

// run drives the source until it stops or the app quits
func (a *App) run() tea.Cmd {
	if a.opts.Source == nil {
		return nil
	}
	src := a.opts.Source
	return func() tea.Msg {
		a.logger.Debug().Str("source", src.Name()).Msg("source started")
		err := src.Run(a.ctx, a.emit)
		a.batcher.Flush()
		a.send(sourceDoneMsg{err: err})
		return nil
	}
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.opts.RefreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

// listen waits for the next message from the source side
func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-a.msgs:
			return msg
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) send(msg tea.Msg) {
	select {
	case a.msgs <- msg:
	case <-a.ctx.Done():
	}
}

// emit is the source callback; it may be called from any goroutine
func (a *App) emit(e core.Entry) {
	a.batcher.Add(e.Key, pendingEntry{seq: a.seq.Add(1), entry: e})
}

// flush delivers a coalesced batch in arrival order
func (a *App) flush(batch map[string]pendingEntry) {
	pending := make([]pendingEntry, 0, len(batch))
	for _, p := range batch {
		pending = append(pending, p)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].seq < pending[j].seq
	})

	entries := make(entriesMsg, len(pending))
	for i, p := range pending {
		entries[i] = p.entry
	}
	a.send(entries)
}

// apply merges a batch into the list: known keys are replaced in place,
// new keys are appended and removed keys are dropped
func (a *App) apply(entries []core.Entry) {
	added := 0
	var removed []string
	for _, e := range entries {
		if e.Removed {
			removed = append(removed, e.Key)
			a.render.forget(e.Key)
			continue
		}
		if _, appended := a.list.Upsert(e); appended {
			added++
		}
	}
	a.list.Remove(removed...)
	a.received += len(entries)

	a.logger.Debug().
		Int("added", added).
		Int("updated", len(entries)-added-len(removed)).
		Int("removed", len(removed)).
		Msg("entries applied")
}

func (a *App) applyPendingSize() {
	a.sizeMu.Lock()
	size := a.pendingSize
	a.sizeMu.Unlock()
	a.send(size)
}

func (a *App) setSize(width, height int) {
	a.width, a.height = width, height
	a.help.Width = width
	a.ready = true
}

func (a *App) nextTheme() {
	a.theme = (a.theme + 1) % len(themeCycle)
	theme, err := style.ThemeByName(themeCycle[a.theme])
	if err != nil {
		return
	}
	a.styles.SetTheme(theme)
	a.render.engine.ClearCache()
	a.list.InvalidateAll()
}

func (a *App) headerView() string {
	title := "kubescroll"
	if a.opts.Title != "" {
		title += " · " + a.opts.Title
	}
	return a.styles.Header().Width(a.width).Render(ansi.Truncate(title, a.width, "…"))
}

func (a *App) statusView() string {
	return a.styles.StatusBar().Width(a.width).Render(ansi.Truncate(a.statusText(), a.width, "…"))
}

// statusText summarizes the render window and source state
func (a *App) statusText() string {
	st := a.list.Stats()
	parts := []string{
		fmt.Sprintf(" %d-%d/%d", st.Range.Start, st.Range.End, st.Items),
		fmt.Sprintf("row %d/%.0f", a.list.ScrollTop(), st.TotalHeight),
		fmt.Sprintf("measured %d", st.Measured),
	}
	if a.list.Following() {
		parts = append(parts, "FOLLOW")
	}
	if a.render.wrap {
		parts = append(parts, "WRAP")
	}
	switch {
	case a.err != nil:
		parts = append(parts, "error: "+a.err.Error())
	case a.done:
		parts = append(parts, "done")
	}
	if a.opts.Debug {
		parts = append(parts,
			a.list.Monitor().Summary("layout"),
			fmt.Sprintf("passes %d", st.Passes),
			fmt.Sprintf("cache %d/%d", st.Cache.Hits, st.Cache.Hits+st.Cache.Misses),
			fmt.Sprintf("recv %d", a.received),
		)
	}
	return strings.Join(parts, "  ")
}
