package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/HamStudy/kubescroll/internal/components/style"
	"github.com/HamStudy/kubescroll/internal/components/vlist"
	"github.com/HamStudy/kubescroll/internal/core"
	"github.com/HamStudy/kubescroll/internal/logging"
	"github.com/HamStudy/kubescroll/internal/source"
	"github.com/HamStudy/kubescroll/internal/ui"
)

// run shows src in the terminal UI, or prints it when output is not a
// terminal
func (s *session) run(cmd *cobra.Command, src source.Source) error {
	if !s.interactive(cmd) {
		return s.print(cmd.Context(), cmd.OutOrStdout(), src)
	}
	return s.tui(cmd, src)
}

func (s *session) tui(cmd *cobra.Command, src source.Source) error {
	ctx := cmd.Context()
	styles, err := s.styles()
	if err != nil {
		return err
	}

	app, err := ui.NewApp(ctx, ui.Options{
		Source:      src,
		List:        s.listOptions(),
		Templates:   s.cfg.Templates,
		Styles:      styles,
		Wrap:        s.cfg.Wrap,
		Follow:      s.cfg.Follow,
		Debug:       s.flags.debug,
		ResizeDelay: ui.DefaultResizeDelay,
		Logger:      logging.Component(s.logger, "ui"),
	})
	if err != nil {
		return err
	}
	defer app.Stop()

	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithOutput(cmd.OutOrStdout()),
	}
	// Entries may be arriving on stdin; keys then come from the terminal.
	if !isTerminal(cmd.InOrStdin()) {
		opts = append(opts, tea.WithInputTTY())
	}

	s.logger.Info().Str("source", src.Name()).Msg("starting ui")
	if _, err := tea.NewProgram(app, opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error running application: %w", err)
	}
	return nil
}

// print writes entries as plain text as they arrive
func (s *session) print(ctx context.Context, w io.Writer, src source.Source) error {
	var mu sync.Mutex
	var werr error
	err := src.Run(ctx, func(e core.Entry) {
		if e.Removed {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if werr == nil {
			werr = writeEntry(w, e)
		}
	})
	if err != nil {
		return err
	}
	return werr
}

// writeEntry prints the title and the indented body of e
func writeEntry(w io.Writer, e core.Entry) error {
	var b strings.Builder
	if e.Kind != core.KindLine && !e.Time.IsZero() {
		b.WriteString(e.Time.Format(time.RFC3339))
		b.WriteByte(' ')
	}
	b.WriteString(e.Title)
	b.WriteByte('\n')
	if e.Body != "" {
		for _, line := range strings.Split(e.Body, "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// styles builds a style manager with the configured theme
func (s *session) styles() (*style.Manager, error) {
	theme, err := style.ThemeByName(s.cfg.Theme)
	if err != nil {
		return nil, err
	}
	styles := style.NewManager()
	styles.SetTheme(theme)
	return styles, nil
}

// listOptions maps the viewport settings onto list options
func (s *session) listOptions() vlist.Options {
	opts := vlist.DefaultOptions()
	vp := s.cfg.Viewport
	opts.Buffer = vp.Buffer
	opts.InitialItemHeight = vp.InitialItemHeight
	opts.StableKeys = vp.StableKeys
	opts.MaxLayoutPasses = vp.MaxLayoutPasses
	opts.CacheSize = vp.CacheSize
	opts.Scrollbar = vp.Scrollbar
	return opts
}
