package virtualizer

import (
	"errors"
	"fmt"
	"math"
)

// Default configuration values
const (
	DefaultViewportHeight    = 400
	DefaultBuffer            = 5
	DefaultInitialItemHeight = 50
)

// ErrInvalidConfig is returned when a Config cannot produce a valid range
var ErrInvalidConfig = errors.New("invalid virtualizer config")

// Config holds the scalar settings of a Virtualizer
type Config struct {
	ViewportHeight    float64 // visible height, > 0
	Buffer            int     // extra items rendered on each side, >= 0
	InitialItemHeight float64 // estimate for unmeasured items, > 0
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ViewportHeight:    DefaultViewportHeight,
		Buffer:            DefaultBuffer,
		InitialItemHeight: DefaultInitialItemHeight,
	}
}

// Validate reports the first contract violation in c
func (c Config) Validate() error {
	if !isFinite(c.ViewportHeight) || c.ViewportHeight <= 0 {
		return fmt.Errorf("%w: viewport height must be positive, got %v", ErrInvalidConfig, c.ViewportHeight)
	}
	if c.Buffer < 0 {
		return fmt.Errorf("%w: buffer must be non-negative, got %d", ErrInvalidConfig, c.Buffer)
	}
	if !isFinite(c.InitialItemHeight) || c.InitialItemHeight <= 0 {
		return fmt.Errorf("%w: initial item height must be positive, got %v", ErrInvalidConfig, c.InitialItemHeight)
	}
	return nil
}

// Normalize clamps every field into its valid domain.
// Zero values are replaced by the defaults.
func (c Config) Normalize() Config {
	if !isFinite(c.ViewportHeight) || c.ViewportHeight <= 0 {
		if c.ViewportHeight == 0 {
			c.ViewportHeight = DefaultViewportHeight
		} else {
			c.ViewportHeight = minViewportHeight
		}
	}
	if c.Buffer < 0 {
		c.Buffer = 0
	}
	if !isFinite(c.InitialItemHeight) || c.InitialItemHeight <= 0 {
		c.InitialItemHeight = DefaultInitialItemHeight
	}
	return c
}

// minViewportHeight is the floor applied by runtime setters
const minViewportHeight = 1

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
