package style

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Manager hands out themed lipgloss styles and caches them by role
type Manager struct {
	theme *Theme
	cache map[string]lipgloss.Style
	mu    sync.RWMutex
}

// Theme defines color schemes and styling
type Theme struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Colors      *ColorScheme `yaml:"colors"`
}

// ColorScheme defines the color palette
type ColorScheme struct {
	Foreground lipgloss.Color   `yaml:"foreground"`
	Muted      lipgloss.Color   `yaml:"muted"`
	Selection  *SelectionColors `yaml:"selection"`
	Levels     *LevelColors     `yaml:"levels"`
	Status     *StatusColors    `yaml:"status"`
	UI         *UIColors        `yaml:"ui"`
}

// SelectionColors for selected items
type SelectionColors struct {
	Background lipgloss.Color `yaml:"background"`
	Foreground lipgloss.Color `yaml:"foreground"`
}

// LevelColors for log severities
type LevelColors struct {
	Error lipgloss.Color `yaml:"error"`
	Warn  lipgloss.Color `yaml:"warn"`
	Info  lipgloss.Color `yaml:"info"`
	Debug lipgloss.Color `yaml:"debug"`
}

// StatusColors for pod phases
type StatusColors struct {
	Running   lipgloss.Color `yaml:"running"`
	Pending   lipgloss.Color `yaml:"pending"`
	Failed    lipgloss.Color `yaml:"failed"`
	Completed lipgloss.Color `yaml:"completed"`
	Unknown   lipgloss.Color `yaml:"unknown"`
}

// UIColors for interface elements
type UIColors struct {
	Border         lipgloss.Color `yaml:"border"`
	Header         lipgloss.Color `yaml:"header"`
	StatusBar      lipgloss.Color `yaml:"statusBar"`
	StatusBarText  lipgloss.Color `yaml:"statusBarText"`
	ScrollbarTrack lipgloss.Color `yaml:"scrollbarTrack"`
	ScrollbarThumb lipgloss.Color `yaml:"scrollbarThumb"`
}

// NewManager creates a new style manager with the default theme
func NewManager() *Manager {
	return &Manager{
		theme: DefaultTheme(),
		cache: make(map[string]lipgloss.Style),
	}
}

// ThemeByName returns one of the built-in themes
func ThemeByName(name string) (*Theme, error) {
	switch strings.ToLower(name) {
	case "", "default", "dark":
		return DefaultTheme(), nil
	case "light":
		return LightTheme(), nil
	case "high-contrast":
		return HighContrastTheme(), nil
	default:
		return nil, fmt.Errorf("unknown theme %q", name)
	}
}

// SetTheme sets the current theme
func (m *Manager) SetTheme(theme *Theme) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.theme = theme
	m.cache = make(map[string]lipgloss.Style)
}

// GetTheme returns the current theme
func (m *Manager) GetTheme() *Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// cached builds a style once per key
func (m *Manager) cached(key string, build func(c *ColorScheme) lipgloss.Style) lipgloss.Style {
	m.mu.RLock()
	style, ok := m.cache[key]
	colors := m.theme.Colors
	m.mu.RUnlock()
	if ok {
		return style
	}

	style = build(colors)

	m.mu.Lock()
	m.cache[key] = style
	m.mu.Unlock()
	return style
}

// Level returns the text style for a log level
func (m *Manager) Level(level string) lipgloss.Style {
	level = strings.ToLower(level)
	return m.cached("level_"+level, func(c *ColorScheme) lipgloss.Style {
		switch level {
		case "error", "fatal", "panic":
			return lipgloss.NewStyle().Foreground(c.Levels.Error)
		case "warn", "warning":
			return lipgloss.NewStyle().Foreground(c.Levels.Warn)
		case "info":
			return lipgloss.NewStyle().Foreground(c.Levels.Info)
		case "debug", "trace":
			return lipgloss.NewStyle().Foreground(c.Levels.Debug)
		default:
			return lipgloss.NewStyle().Foreground(c.Foreground)
		}
	})
}

// Status returns the text style for a pod phase or event reason
func (m *Manager) Status(status string) lipgloss.Style {
	status = strings.ToLower(status)
	return m.cached("status_"+status, func(c *ColorScheme) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(statusColor(c.Status, status))
	})
}

// Selected returns the style of the selected item
func (m *Manager) Selected() lipgloss.Style {
	return m.cached("selected", func(c *ColorScheme) lipgloss.Style {
		return lipgloss.NewStyle().
			Background(c.Selection.Background).
			Foreground(c.Selection.Foreground)
	})
}

// Gutter returns the marker column style; selected rows get an accent bar
func (m *Manager) Gutter(selected bool) lipgloss.Style {
	return m.cached(fmt.Sprintf("gutter_%t", selected), func(c *ColorScheme) lipgloss.Style {
		if selected {
			return lipgloss.NewStyle().Foreground(c.Selection.Background).Bold(true)
		}
		return lipgloss.NewStyle().Foreground(c.UI.Border)
	})
}

// Header returns the title bar style
func (m *Manager) Header() lipgloss.Style {
	return m.cached("header", func(c *ColorScheme) lipgloss.Style {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(c.UI.Header).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(c.UI.Border)
	})
}

// StatusBar returns the footer style
func (m *Manager) StatusBar() lipgloss.Style {
	return m.cached("statusbar", func(c *ColorScheme) lipgloss.Style {
		return lipgloss.NewStyle().
			Background(c.UI.StatusBar).
			Foreground(c.UI.StatusBarText)
	})
}

// Muted returns the style for secondary text
func (m *Manager) Muted() lipgloss.Style {
	return m.cached("muted", func(c *ColorScheme) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c.Muted)
	})
}

// Scrollbar returns the track and thumb styles
func (m *Manager) Scrollbar() (track, thumb lipgloss.Style) {
	track = m.cached("scroll_track", func(c *ColorScheme) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c.UI.ScrollbarTrack)
	})
	thumb = m.cached("scroll_thumb", func(c *ColorScheme) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c.UI.ScrollbarThumb)
	})
	return track, thumb
}

// ColorText applies a color to text
func (m *Manager) ColorText(text, color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// ClearCache clears the style cache
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]lipgloss.Style)
}

// statusColor returns the appropriate color for a status
func statusColor(colors *StatusColors, status string) lipgloss.Color {
	switch {
	case strings.Contains(status, "running"), strings.Contains(status, "normal"):
		return colors.Running
	case strings.Contains(status, "pending"), strings.Contains(status, "creating"):
		return colors.Pending
	case strings.Contains(status, "failed"), strings.Contains(status, "error"),
		strings.Contains(status, "crash"), strings.Contains(status, "backoff"),
		strings.Contains(status, "warning"):
		return colors.Failed
	case strings.Contains(status, "completed"), strings.Contains(status, "succeeded"):
		return colors.Completed
	default:
		return colors.Unknown
	}
}

// DefaultTheme returns the default dark theme
func DefaultTheme() *Theme {
	return &Theme{
		Name:        "default",
		Description: "Default dark theme",
		Colors: &ColorScheme{
			Foreground: lipgloss.Color("#d4d4d4"),
			Muted:      lipgloss.Color("#808080"),
			Selection: &SelectionColors{
				Background: lipgloss.Color("#264f78"),
				Foreground: lipgloss.Color("#ffffff"),
			},
			Levels: &LevelColors{
				Error: lipgloss.Color("#f44747"),
				Warn:  lipgloss.Color("#dcdcaa"),
				Info:  lipgloss.Color("#569cd6"),
				Debug: lipgloss.Color("#808080"),
			},
			Status: &StatusColors{
				Running:   lipgloss.Color("#4ec9b0"),
				Pending:   lipgloss.Color("#dcdcaa"),
				Failed:    lipgloss.Color("#f44747"),
				Completed: lipgloss.Color("#569cd6"),
				Unknown:   lipgloss.Color("#808080"),
			},
			UI: &UIColors{
				Border:         lipgloss.Color("#3c3c3c"),
				Header:         lipgloss.Color("#cccccc"),
				StatusBar:      lipgloss.Color("#007acc"),
				StatusBarText:  lipgloss.Color("#ffffff"),
				ScrollbarTrack: lipgloss.Color("#3c3c3c"),
				ScrollbarThumb: lipgloss.Color("#a0a0a0"),
			},
		},
	}
}

// LightTheme returns a light theme
func LightTheme() *Theme {
	return &Theme{
		Name:        "light",
		Description: "Light theme",
		Colors: &ColorScheme{
			Foreground: lipgloss.Color("#000000"),
			Muted:      lipgloss.Color("#605e5c"),
			Selection: &SelectionColors{
				Background: lipgloss.Color("#0078d4"),
				Foreground: lipgloss.Color("#ffffff"),
			},
			Levels: &LevelColors{
				Error: lipgloss.Color("#d13438"),
				Warn:  lipgloss.Color("#ff8c00"),
				Info:  lipgloss.Color("#0078d4"),
				Debug: lipgloss.Color("#605e5c"),
			},
			Status: &StatusColors{
				Running:   lipgloss.Color("#107c10"),
				Pending:   lipgloss.Color("#ffb900"),
				Failed:    lipgloss.Color("#d13438"),
				Completed: lipgloss.Color("#0078d4"),
				Unknown:   lipgloss.Color("#605e5c"),
			},
			UI: &UIColors{
				Border:         lipgloss.Color("#d1d1d1"),
				Header:         lipgloss.Color("#323130"),
				StatusBar:      lipgloss.Color("#0078d4"),
				StatusBarText:  lipgloss.Color("#ffffff"),
				ScrollbarTrack: lipgloss.Color("#d1d1d1"),
				ScrollbarThumb: lipgloss.Color("#605e5c"),
			},
		},
	}
}

// HighContrastTheme returns a high contrast theme for accessibility
func HighContrastTheme() *Theme {
	return &Theme{
		Name:        "high-contrast",
		Description: "High contrast theme",
		Colors: &ColorScheme{
			Foreground: lipgloss.Color("#ffffff"),
			Muted:      lipgloss.Color("#c0c0c0"),
			Selection: &SelectionColors{
				Background: lipgloss.Color("#ffffff"),
				Foreground: lipgloss.Color("#000000"),
			},
			Levels: &LevelColors{
				Error: lipgloss.Color("#ff0000"),
				Warn:  lipgloss.Color("#ffff00"),
				Info:  lipgloss.Color("#00ffff"),
				Debug: lipgloss.Color("#c0c0c0"),
			},
			Status: &StatusColors{
				Running:   lipgloss.Color("#00ff00"),
				Pending:   lipgloss.Color("#ffff00"),
				Failed:    lipgloss.Color("#ff0000"),
				Completed: lipgloss.Color("#00ffff"),
				Unknown:   lipgloss.Color("#808080"),
			},
			UI: &UIColors{
				Border:         lipgloss.Color("#ffffff"),
				Header:         lipgloss.Color("#ffffff"),
				StatusBar:      lipgloss.Color("#ffffff"),
				StatusBarText:  lipgloss.Color("#000000"),
				ScrollbarTrack: lipgloss.Color("#808080"),
				ScrollbarThumb: lipgloss.Color("#ffffff"),
			},
		},
	}
}
