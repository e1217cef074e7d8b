package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("KUBECONFIG", "")
		t.Setenv("KUBESCROLL_NAMESPACE", "")
		t.Setenv("KUBESCROLL_CONTEXT", "")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".kube", "config"), cfg.KubeConfig)
		assert.Empty(t, cfg.Namespace)
		assert.Equal(t, "", cfg.Context)
		assert.Equal(t, DefaultRefreshInterval, cfg.RefreshInterval)
		assert.Equal(t, int64(DefaultLogTailLines), cfg.LogTailLines)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/a/config:/b/config")
		t.Setenv("KUBESCROLL_NAMESPACE", "kube-system")
		t.Setenv("KUBESCROLL_CONTEXT", "staging")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "/a/config:/b/config", cfg.KubeConfig)
		assert.Equal(t, "kube-system", cfg.Namespace)
		assert.Equal(t, "staging", cfg.Context)
	})
}
