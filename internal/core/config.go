package core

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the runtime Kubernetes connection settings
type Config struct {
	KubeConfig      string
	Context         string
	Namespace       string
	RefreshInterval time.Duration
	LogTailLines    int64
}

// Defaults for runtime settings
const (
	DefaultRefreshInterval = 5 * time.Second
	DefaultLogTailLines    = 500
)

// LoadConfig resolves connection settings from the environment. Flags
// override the result afterwards.
func LoadConfig() (*Config, error) {
	config := &Config{
		RefreshInterval: DefaultRefreshInterval,
		LogTailLines:    DefaultLogTailLines,
	}

	// The raw KUBECONFIG value may hold several paths; the k8s client splits it.
	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		kubeconfig = filepath.Join(home, ".kube", "config")
	}
	config.KubeConfig = kubeconfig

	// An empty namespace selects the one from the kubeconfig context.
	config.Namespace = os.Getenv("KUBESCROLL_NAMESPACE")
	config.Context = os.Getenv("KUBESCROLL_CONTEXT")

	return config, nil
}
