// Package logging builds the zerolog loggers used across kubescroll.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level and destination of the logger
type Config struct {
	Level string
	// File receives the log when set. Interactive sessions always log to a
	// file because the terminal belongs to the UI.
	File        string
	Interactive bool
	// Stderr is the console destination; os.Stderr when nil
	Stderr io.Writer
}

// Result is a configured logger and the file backing it, if any
type Result struct {
	Logger    zerolog.Logger
	FilePath  string
	UsingFile bool
	file      *os.File
}

// Close closes the log file
func (r *Result) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// DefaultFile returns the log file used by interactive sessions
func DefaultFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "kubescroll", "kubescroll.log")
}

// New builds a leveled logger. Unknown levels fall back to info.
func New(cfg Config) (*Result, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	path := cfg.File
	if path == "" && cfg.Interactive {
		path = DefaultFile()
	}

	result := &Result{}
	var out io.Writer
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		result.file = f
		result.FilePath = path
		result.UsingFile = true
		out = f
	} else {
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		out = zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: time.RFC3339,
		}
	}

	result.Logger = zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return result, nil
}

// Component derives a logger tagged with a component name
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
