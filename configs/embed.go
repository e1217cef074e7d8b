package configs

import (
	_ "embed"
)

// DefaultConfig is the built-in configuration that user files are merged over
//
//go:embed default.yaml
var DefaultConfig []byte
