package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	result, err := New(Config{Level: "warn", Stderr: &buf})
	require.NoError(t, err)
	defer result.Close()

	assert.False(t, result.UsingFile)
	assert.Equal(t, zerolog.WarnLevel, result.Logger.GetLevel())

	result.Logger.Info().Msg("hidden")
	result.Logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewFallsBackToInfo(t *testing.T) {
	for _, level := range []string{"", "loud"} {
		result, err := New(Config{Level: level, Stderr: &bytes.Buffer{}})
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, result.Logger.GetLevel(), level)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kubescroll.log")
	result, err := New(Config{Level: "DEBUG", File: path})
	require.NoError(t, err)

	assert.True(t, result.UsingFile)
	assert.Equal(t, path, result.FilePath)

	logger := Component(result.Logger, "vlist")
	logger.Debug().Int("passes", 2).Msg("layout")
	require.NoError(t, result.Close())
	require.NoError(t, result.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"vlist"`)
	assert.Contains(t, string(data), `"passes":2`)
}

func TestInteractiveUsesDefaultFile(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	result, err := New(Config{Interactive: true})
	require.NoError(t, err)
	defer result.Close()

	assert.True(t, result.UsingFile)
	assert.Equal(t, DefaultFile(), result.FilePath)
}
