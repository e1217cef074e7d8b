package cli

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/HamStudy/kubescroll/internal/core"
	"github.com/HamStudy/kubescroll/internal/logging"
	"github.com/HamStudy/kubescroll/internal/ui"
)

func newWindowCmd(s *session) *cobra.Command {
	var (
		width     int
		height    int
		scrollTop int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "window [file|-]",
		Short: "Print the rows a list of the given size would show",
		Long: `Reads every entry from a file or stdin, lays them out in an off-screen list
and prints the visible rows together with the render window and layout
statistics.`,
		Example: `  # Rows 100 to 123 of a log at 120 columns
  kubescroll window app.log --width 120 --height 24 --scroll-top 100

  # Machine-readable report
  cat app.log | kubescroll window --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) > 0 {
				path = args[0]
			} else if isTerminal(cmd.InOrStdin()) {
				return errNoInput
			}

			s.cfg.Follow = false
			entries, err := s.collect(cmd, path)
			if err != nil {
				return err
			}
			styles, err := s.styles()
			if err != nil {
				return err
			}

			report, err := ui.RenderWindow(entries, ui.WindowOptions{
				Width:     width,
				Height:    height,
				ScrollTop: scrollTop,
				List:      s.listOptions(),
				Templates: s.cfg.Templates,
				Styles:    styles,
				Wrap:      s.cfg.Wrap,
				Logger:    logging.Component(s.logger, "window"),
			})
			if err != nil {
				return err
			}

			styled := isTerminal(cmd.OutOrStdout()) && !asJSON
			if !styled {
				for i, line := range report.Lines {
					report.Lines[i] = ansi.Strip(line)
				}
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "items %d-%d of %d  scrollTop %d  total %.0f  measured %d  passes %d\n",
				report.Start, report.End, report.Items, report.ScrollTop,
				report.TotalHeight, report.Measured, report.Passes)
			for _, line := range report.Lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 80, "list width in columns")
	cmd.Flags().IntVar(&height, "height", 24, "list height in rows")
	cmd.Flags().IntVar(&scrollTop, "scroll-top", 0, "first visible row")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// collect reads every entry of path, applying replacements and removals
// by key
func (s *session) collect(cmd *cobra.Command, path string) ([]core.Entry, error) {
	var (
		mu      sync.Mutex
		entries []core.Entry
		index   = make(map[string]int)
	)
	err := s.fileSource(cmd, path).Run(cmd.Context(), func(e core.Entry) {
		mu.Lock()
		defer mu.Unlock()
		i, known := index[e.Key]
		switch {
		case e.Removed && known:
			entries = append(entries[:i], entries[i+1:]...)
			delete(index, e.Key)
			for k, j := range index {
				if j > i {
					index[k] = j - 1
				}
			}
		case e.Removed:
		case known:
			entries[i] = e
		default:
			index[e.Key] = len(entries)
			entries = append(entries, e)
		}
	})
	return entries, err
}
