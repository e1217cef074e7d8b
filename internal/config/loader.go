package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/HamStudy/kubescroll/configs"
	"github.com/HamStudy/kubescroll/internal/components/style"
	"github.com/HamStudy/kubescroll/internal/source"
	"github.com/HamStudy/kubescroll/internal/template"
)

// Environment variables that override the file configuration
const (
	EnvTheme    = "KUBESCROLL_THEME"
	EnvLogLevel = "KUBESCROLL_LOG_LEVEL"
	EnvBuffer   = "KUBESCROLL_BUFFER"
)

// MaxLayoutPasses caps viewport.maxLayoutPasses
const MaxLayoutPasses = 32

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the main configuration structure
type Config struct {
	Version   string            `yaml:"version"`
	Theme     string            `yaml:"theme"`
	Follow    bool              `yaml:"follow"`
	Wrap      bool              `yaml:"wrap"`
	Viewport  ViewportConfig    `yaml:"viewport"`
	Sources   SourcesConfig     `yaml:"sources"`
	Logging   LoggingConfig     `yaml:"logging"`
	Templates map[string]string `yaml:"templates"`
}

// ViewportConfig tunes the virtualized list
type ViewportConfig struct {
	Buffer            int     `yaml:"buffer"`
	InitialItemHeight float64 `yaml:"initialItemHeight"`
	StableKeys        bool    `yaml:"stableKeys"`
	MaxLayoutPasses   int     `yaml:"maxLayoutPasses"`
	CacheSize         int     `yaml:"cacheSize"`
	Scrollbar         bool    `yaml:"scrollbar"`
}

// SourcesConfig holds defaults for entry sources
type SourcesConfig struct {
	Mode            string        `yaml:"mode"`
	TailLines       int64         `yaml:"tailLines"`
	RefreshInterval time.Duration `yaml:"refreshInterval"`
	PollInterval    time.Duration `yaml:"pollInterval"`
}

// LoggingConfig selects the log level and destination
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Loader handles configuration loading and management
type Loader struct {
	path   string
	user   []byte
	merged *Config
	mu     sync.RWMutex
}

// DefaultPath returns ~/.config/kubescroll/config.yaml
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "kubescroll", "config.yaml")
}

// NewLoader creates a loader for the file at path; "" selects DefaultPath
func NewLoader(path string) *Loader {
	if path == "" {
		path = DefaultPath()
	}
	return &Loader{path: path}
}

// Path returns the user config file location
func (l *Loader) Path() string {
	return l.path
}

// Load reads the user file, when present, over the built-in defaults
func (l *Loader) Load() error {
	data, err := os.ReadFile(l.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", l.path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.user = data
	l.merged = cfg
	return nil
}

// LoadString parses content over the built-in defaults without touching disk
func (l *Loader) LoadString(content string) (*Config, error) {
	return parse([]byte(content))
}

// Get returns the current configuration
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.merged != nil {
		return l.merged
	}
	cfg, _ := parse(nil)
	return cfg
}

// Save writes cfg to the user file, creating its directory
func (l *Loader) Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	l.mu.Lock()
	l.user = data
	l.merged = cfg
	l.mu.Unlock()
	return nil
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	cfg, err := parse(nil)
	if err != nil {
		panic(fmt.Sprintf("built-in config is invalid: %v", err))
	}
	return cfg
}

// parse decodes the defaults and then user over the same value, so keys
// present in user override the defaults and template maps are merged
func parse(user []byte) (*Config, error) {
	var cfg Config
	if err := decode(bytes.NewReader(configs.DefaultConfig), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse defaults: %w", err)
	}
	if len(bytes.TrimSpace(user)) > 0 {
		if err := decode(bytes.NewReader(user), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.Templates == nil {
		cfg.Templates = make(map[string]string)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv applies the KUBESCROLL_* overrides read through getenv
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvTheme); v != "" {
		c.Theme = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := getenv(EnvBuffer); v != "" {
		buffer, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvBuffer, err)
		}
		c.Viewport.Buffer = buffer
	}
	return c.Validate()
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if _, err := style.ThemeByName(c.Theme); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Viewport.Buffer < 0 {
		return fmt.Errorf("%w: viewport.buffer must be non-negative, got %d", ErrInvalidConfig, c.Viewport.Buffer)
	}
	if c.Viewport.InitialItemHeight <= 0 {
		return fmt.Errorf("%w: viewport.initialItemHeight must be positive, got %v", ErrInvalidConfig, c.Viewport.InitialItemHeight)
	}
	if c.Viewport.MaxLayoutPasses < 1 || c.Viewport.MaxLayoutPasses > MaxLayoutPasses {
		return fmt.Errorf("%w: viewport.maxLayoutPasses must be between 1 and %d, got %d",
			ErrInvalidConfig, MaxLayoutPasses, c.Viewport.MaxLayoutPasses)
	}
	if c.Viewport.CacheSize < 0 {
		return fmt.Errorf("%w: viewport.cacheSize must be non-negative, got %d", ErrInvalidConfig, c.Viewport.CacheSize)
	}
	if _, err := source.ParseMode(c.Sources.Mode); err != nil {
		return fmt.Errorf("%w: sources.mode: %v", ErrInvalidConfig, err)
	}
	if c.Sources.TailLines < 0 {
		return fmt.Errorf("%w: sources.tailLines must be non-negative, got %d", ErrInvalidConfig, c.Sources.TailLines)
	}
	if c.Sources.RefreshInterval <= 0 {
		return fmt.Errorf("%w: sources.refreshInterval must be positive", ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}

	engine := template.NewEngine(nil)
	for name, tmpl := range c.Templates {
		if err := engine.Validate(tmpl); err != nil {
			return fmt.Errorf("%w: templates.%s: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}
