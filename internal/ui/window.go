package ui

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/HamStudy/kubescroll/internal/components/style"
	"github.com/HamStudy/kubescroll/internal/components/vlist"
	"github.com/HamStudy/kubescroll/internal/core"
)

// WindowOptions configures an off-screen render
type WindowOptions struct {
	Width     int
	Height    int
	ScrollTop int
	List      vlist.Options
	Templates map[string]string
	Styles    *style.Manager
	Wrap      bool
	Logger    zerolog.Logger
}

// WindowReport describes the rows an off-screen render produced
type WindowReport struct {
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Items       int      `json:"items"`
	ScrollTop   int      `json:"scrollTop"`
	TotalHeight float64  `json:"totalHeight"`
	Measured    int      `json:"measured"`
	Passes      int      `json:"passes"`
	Lines       []string `json:"lines"`
}

// RenderWindow lays out entries in a list of the given size without a
// terminal and reports the resulting window
func RenderWindow(entries []core.Entry, opts WindowOptions) (*WindowReport, error) {
	if opts.Styles == nil {
		opts.Styles = style.NewManager()
	}
	r, err := newRenderer(opts.Styles, opts.Templates, opts.Wrap, opts.Logger)
	if err != nil {
		return nil, err
	}

	listOpts := opts.List
	listOpts.Styles = opts.Styles
	listOpts.Logger = opts.Logger
	listOpts.Scrollbar = false
	list, err := vlist.New(r.Render, entryKey, listOpts)
	if err != nil {
		return nil, err
	}
	list.SetSize(opts.Width, opts.Height)
	list.SetItems(entries)
	list.View()
	list.ScrollTo(opts.ScrollTop)
	view := list.View()

	st := list.Stats()
	return &WindowReport{
		Start:       st.Range.Start,
		End:         st.Range.End,
		Items:       st.Items,
		ScrollTop:   list.ScrollTop(),
		TotalHeight: st.TotalHeight,
		Measured:    st.Measured,
		Passes:      st.Passes,
		Lines:       strings.Split(view, "\n"),
	}, nil
}
