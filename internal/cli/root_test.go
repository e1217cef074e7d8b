package cli_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamStudy/kubescroll/internal/cli"
)

// execute runs the root command with an isolated config file and returns
// stdout
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("KUBESCROLL_THEME", "")
	t.Setenv("KUBESCROLL_LOG_LEVEL", "")
	t.Setenv("KUBESCROLL_BUFFER", "")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	return executeWithConfig(t, configPath, stdin, args...)
}

func executeWithConfig(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", configPath}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestRootPrintsFileWhenNotATerminal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("panic: boom\n  at main.go:1\nnext\n"), 0o644))

	out, err := execute(t, "", path)
	require.NoError(t, err)
	assert.Equal(t, "panic: boom\n    at main.go:1\nnext\n", out)
}

func TestRootReadsStdin(t *testing.T) {
	out, err := execute(t, "alpha\n  beta\ngamma\n", "--mode", "line")
	require.NoError(t, err)
	assert.Equal(t, "alpha\n  beta\ngamma\n", out)

	out, err = execute(t, "alpha\n", "-")
	require.NoError(t, err)
	assert.Equal(t, "alpha\n", out)
}

func TestRootMissingFile(t *testing.T) {
	_, err := execute(t, "", filepath.Join(t.TempDir(), "nope.log"))
	assert.Error(t, err)
}

func TestRootRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown theme flag", args: []string{"--theme", "neon"}},
		{name: "negative buffer flag", args: []string{"--buffer=-2"}},
		{name: "unknown mode flag", args: []string{"--mode", "json"}},
		{name: "bad buffer env", env: map[string]string{"KUBESCROLL_BUFFER": "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			_, err := executeWithConfig(t, configPath, "x\n", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestWindowCommand(t *testing.T) {
	var input strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&input, "line %d\n", i)
	}

	out, err := execute(t, input.String(),
		"window", "--buffer", "0", "--width", "40", "--height", "5", "--scroll-top", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "items 3-8 of 20  scrollTop 3  total 20  measured "), lines[0])
	assert.Contains(t, lines[1], "line 3")
	assert.Contains(t, lines[5], "line 7")
}

func TestWindowCommandJSON(t *testing.T) {
	out, err := execute(t, "one\ntwo\n  more\nthree\n",
		"window", "--json", "--width", "30", "--height", "3", "--scroll-top", "1")
	require.NoError(t, err)

	var report struct {
		Start       int      `json:"start"`
		End         int      `json:"end"`
		Items       int      `json:"items"`
		ScrollTop   int      `json:"scrollTop"`
		TotalHeight float64  `json:"totalHeight"`
		Lines       []string `json:"lines"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, 3, report.Items)
	assert.Equal(t, 1, report.ScrollTop)
	assert.Equal(t, 4.0, report.TotalHeight)
	require.Len(t, report.Lines, 3)
	assert.Contains(t, report.Lines[0], "two")
	assert.Contains(t, report.Lines[1], "more")
	assert.Contains(t, report.Lines[2], "three")
}

func TestWindowCommandMissingFile(t *testing.T) {
	_, err := execute(t, "", "window", filepath.Join(t.TempDir(), "missing.log"))
	assert.Error(t, err)
}
