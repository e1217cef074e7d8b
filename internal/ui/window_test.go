package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamStudy/kubescroll/internal/components/vlist"
	"github.com/HamStudy/kubescroll/internal/core"
)

func TestRenderWindow(t *testing.T) {
	entries := make([]core.Entry, 20)
	for i := range entries {
		entries[i] = core.Entry{
			Key:   fmt.Sprintf("e%d", i),
			Kind:  core.KindLine,
			Title: fmt.Sprintf("entry %d", i),
			Body:  "detail",
		}
	}

	opts := vlist.DefaultOptions()
	opts.Buffer = 1
	report, err := RenderWindow(entries, WindowOptions{
		Width:     40,
		Height:    6,
		ScrollTop: 4,
		List:      opts,
	})
	require.NoError(t, err)

	assert.Equal(t, 20, report.Items)
	assert.Equal(t, 4, report.ScrollTop)
	assert.Equal(t, 1, report.Start)
	assert.Equal(t, 6, report.End)
	require.Len(t, report.Lines, 6)
	assert.Contains(t, ansi.Strip(report.Lines[0]), "entry 2")
	assert.Contains(t, ansi.Strip(report.Lines[1]), "detail")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(ansi.Strip(report.Lines[2])), "entry 3"))
}

func TestRenderWindowRejectsBadTemplate(t *testing.T) {
	_, err := RenderWindow(nil, WindowOptions{
		Width:     40,
		Height:    5,
		Templates: map[string]string{"line": "{{ if }}"},
	})
	assert.Error(t, err)
}
