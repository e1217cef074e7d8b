package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/HamStudy/kubescroll/internal/components/style"
	"github.com/HamStudy/kubescroll/internal/core"
	"github.com/HamStudy/kubescroll/internal/template"
)

// entryView is the data handed to entry templates
type entryView struct {
	core.Entry
	Width    int  `json:"width"`
	Selected bool `json:"selected"`
}

// renderer turns entries into list items
type renderer struct {
	engine   *template.Engine
	styles   *style.Manager
	wrap     bool
	expanded map[string]bool
	failed   map[string]bool
	logger   zerolog.Logger
}

func newRenderer(styles *style.Manager, templates map[string]string, wrap bool, logger zerolog.Logger) (*renderer, error) {
	engine := template.NewEngine(styles)
	if err := engine.LoadTemplates(template.DefaultTemplates); err != nil {
		return nil, err
	}
	if err := engine.LoadTemplates(templates); err != nil {
		return nil, fmt.Errorf("invalid entry template: %w", err)
	}
	return &renderer{
		engine:   engine,
		styles:   styles,
		wrap:     wrap,
		expanded: make(map[string]bool),
		failed:   make(map[string]bool),
		logger:   logger,
	}, nil
}

// Render implements vlist.RenderFunc for entries
func (r *renderer) Render(e core.Entry, _ int, width int, selected bool) string {
	name := template.TemplateFor(string(e.Kind))
	out, err := r.engine.ExecuteNamed(name, entryView{Entry: e, Width: width, Selected: selected})
	if err != nil {
		if !r.failed[name] {
			r.failed[name] = true
			r.logger.Warn().Err(err).Str("template", name).Msg("template failed, showing raw entry")
		}
		out = e.Title
		if e.Body != "" {
			out += "\n" + e.Body
		}
	}
	out = strings.TrimRight(out, "\n")

	if r.expanded[e.Key] {
		if details := r.details(e); details != "" {
			out += "\n" + details
		}
	}
	if r.wrap {
		out = lipgloss.NewStyle().Width(width).Render(out)
	}
	if selected {
		out = r.styles.Selected().Render(out)
	}
	return out
}

// details lists the entry fields, sorted by name
func (r *renderer) details(e core.Entry) string {
	if len(e.Fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	muted := r.styles.Muted()
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = "    " + muted.Render(name+": ") + e.Fields[name]
	}
	return strings.Join(lines, "\n")
}

// toggle expands or collapses the details of key
func (r *renderer) toggle(key string) {
	if r.expanded[key] {
		delete(r.expanded, key)
		return
	}
	r.expanded[key] = true
}

func (r *renderer) forget(key string) {
	delete(r.expanded, key)
}

func entryKey(e core.Entry) string {
	return e.Key
}
