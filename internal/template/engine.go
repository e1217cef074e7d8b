package template

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/HamStudy/kubescroll/internal/components/style"
)

// Engine turns list entries into display text using text/template with
// styling and formatting helpers
type Engine struct {
	funcMap   template.FuncMap
	templates map[string]*template.Template
	cache     *Cache
	styles    *style.Manager
	now       func() time.Time
	mu        sync.RWMutex
}

// NewEngine creates a new template engine. Styles may be nil, in which case
// level and status helpers fall back to the default theme.
func NewEngine(styles *style.Manager) *Engine {
	if styles == nil {
		styles = style.NewManager()
	}
	e := &Engine{
		funcMap:   make(template.FuncMap),
		templates: make(map[string]*template.Template),
		cache:     NewCache(DefaultCacheSize, DefaultCacheTTL),
		styles:    styles,
		now:       time.Now,
	}
	e.registerBuiltinFuncs()
	return e
}

func (e *Engine) registerBuiltinFuncs() {
	// Styling
	e.funcMap["color"] = e.colorFunc
	e.funcMap["bold"] = e.boldFunc
	e.funcMap["italic"] = e.italicFunc
	e.funcMap["faint"] = e.faintFunc
	e.funcMap["level"] = e.levelFunc
	e.funcMap["status"] = e.statusFunc
	e.funcMap["muted"] = e.mutedFunc

	// Layout
	e.funcMap["indent"] = e.indentFunc
	e.funcMap["wrap"] = e.wrapFunc
	e.funcMap["pad"] = e.padFunc
	e.funcMap["sub"] = func(a, b int) int { return a - b }

	// Formatting
	e.funcMap["ago"] = e.agoFunc
	e.funcMap["timestamp"] = e.timestampFunc
	e.funcMap["humanizeBytes"] = humanizeBytes
	e.funcMap["humanizeDuration"] = humanizeDuration

	// Strings
	e.funcMap["upper"] = strings.ToUpper
	e.funcMap["lower"] = strings.ToLower
	e.funcMap["trim"] = strings.TrimSpace
	e.funcMap["contains"] = strings.Contains
	e.funcMap["hasPrefix"] = strings.HasPrefix
	e.funcMap["join"] = strings.Join
	e.funcMap["default"] = defaultFunc
}

// Validate checks if a template parses
func (e *Engine) Validate(tmplStr string) error {
	_, err := e.parse("validate", tmplStr)
	return err
}

// parse treats missing map keys as zero values so templates can test
// optional fields with a plain if
func (e *Engine) parse(name, tmplStr string) (*template.Template, error) {
	return template.New(name).Funcs(e.funcMap).Option("missingkey=zero").Parse(tmplStr)
}

// LoadTemplate registers a named template
func (e *Engine) LoadTemplate(name, tmplStr string) error {
	tmpl, err := e.parse(name, tmplStr)
	if err != nil {
		return fmt.Errorf("template %s: %w", name, err)
	}

	e.mu.Lock()
	e.templates[name] = tmpl
	e.mu.Unlock()
	e.cache.Clear()

	return nil
}

// LoadTemplates registers several named templates, stopping at the first error
func (e *Engine) LoadTemplates(templates map[string]string) error {
	for name, tmplStr := range templates {
		if err := e.LoadTemplate(name, tmplStr); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteNamed executes a named template. Results are cached by template
// name and data for DefaultCacheTTL.
func (e *Engine) ExecuteNamed(name string, data any) (string, error) {
	if cached, ok := e.cache.Get(name, data); ok {
		return cached, nil
	}

	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template %s: %w", name, err)
	}

	result := buf.String()
	e.cache.Set(name, data, result)
	return result, nil
}

// ClearCache drops cached results, e.g. after a theme change
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

func (e *Engine) colorFunc(color, text string) string {
	if text == "" {
		return ""
	}
	return e.styles.ColorText(text, color)
}

func (e *Engine) boldFunc(text string) string {
	return lipgloss.NewStyle().Bold(true).Render(text)
}

func (e *Engine) italicFunc(text string) string {
	return lipgloss.NewStyle().Italic(true).Render(text)
}

func (e *Engine) faintFunc(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

// levelFunc colors text by a log level: {{ level .Level .Title }}
func (e *Engine) levelFunc(level, text string) string {
	if text == "" {
		return ""
	}
	return e.styles.Level(level).Render(text)
}

func (e *Engine) statusFunc(status, text string) string {
	if text == "" {
		return ""
	}
	return e.styles.Status(status).Render(text)
}

func (e *Engine) mutedFunc(text string) string {
	if text == "" {
		return ""
	}
	return e.styles.Muted().Render(text)
}

func (e *Engine) indentFunc(n int, text string) string {
	if n <= 0 || text == "" {
		return text
	}
	return indent.String(text, uint(n))
}

func (e *Engine) wrapFunc(width int, text string) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

func (e *Engine) padFunc(width int, text string) string {
	if w := lipgloss.Width(text); w < width {
		return text + strings.Repeat(" ", width-w)
	}
	return text
}

func (e *Engine) agoFunc(t any) string {
	ts, ok := toTime(t)
	if !ok || ts.IsZero() {
		return "unknown"
	}
	return humanizeDuration(e.now().Sub(ts))
}

func (e *Engine) timestampFunc(t any) string {
	ts, ok := toTime(t)
	if !ok || ts.IsZero() {
		return "unknown"
	}
	return ts.Format("2006-01-02 15:04:05")
}

func toTime(t any) (time.Time, bool) {
	switch v := t.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

func humanizeDuration(d any) string {
	var duration time.Duration
	switch v := d.(type) {
	case time.Duration:
		duration = v
	case int:
		duration = time.Duration(v) * time.Second
	case int64:
		duration = time.Duration(v) * time.Second
	case float64:
		duration = time.Duration(v * float64(time.Second))
	default:
		return "0s"
	}
	if duration < 0 {
		duration = 0
	}

	switch {
	case duration < time.Minute:
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	case duration < time.Hour:
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	case duration < 24*time.Hour:
		return fmt.Sprintf("%dh", int(duration.Hours()))
	case duration < 365*24*time.Hour:
		return fmt.Sprintf("%dd", int(duration.Hours()/24))
	}
	return fmt.Sprintf("%dy", int(duration.Hours()/24/365))
}

func humanizeBytes(bytes any) string {
	var b int64
	switch v := bytes.(type) {
	case int:
		b = int64(v)
	case int64:
		b = v
	case float64:
		b = int64(v)
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return v
		}
		b = parsed
	default:
		return "0"
	}

	units := []string{"", "Ki", "Mi", "Gi", "Ti", "Pi"}
	value := float64(b)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}

	if unit == 0 {
		return fmt.Sprintf("%d", int(value))
	}
	return fmt.Sprintf("%.1f%s", value, units[unit])
}

// defaultFunc returns the default value if the given value is empty
func defaultFunc(defaultVal, val any) any {
	switch v := val.(type) {
	case nil:
		return defaultVal
	case string:
		if v == "" {
			return defaultVal
		}
	case int:
		if v == 0 {
			return defaultVal
		}
	case float64:
		if v == 0 {
			return defaultVal
		}
	case []string:
		if len(v) == 0 {
			return defaultVal
		}
	case map[string]string:
		if len(v) == 0 {
			return defaultVal
		}
	}
	return val
}
