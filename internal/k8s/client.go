package k8s

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"
)

// ErrMetricsUnavailable is returned when the metrics API cannot be reached
var ErrMetricsUnavailable = errors.New("metrics API not available")

// Client represents a Kubernetes client
type Client struct {
	clientset     kubernetes.Interface
	metricsClient metricsclient.Interface
	config        *rest.Config
	namespace     string
}

// ClientOptions selects the kubeconfig, context and namespace to use
type ClientOptions struct {
	Kubeconfig string
	Context    string
	Namespace  string
	Timeout    time.Duration
}

// getPathSeparator returns the OS-specific path list separator
func getPathSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

// kubeconfigPaths splits a KUBECONFIG style value into its paths
func kubeconfigPaths(kubeconfig string) []string {
	var paths []string
	for _, path := range strings.Split(kubeconfig, getPathSeparator()) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	return paths
}

// NewClient creates a new Kubernetes client. In-cluster configuration is
// used when no kubeconfig or context is requested and it is available.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Kubeconfig == "" && opts.Context == "" {
		if config, err := rest.InClusterConfig(); err == nil {
			namespace := opts.Namespace
			if namespace == "" {
				namespace = inClusterNamespace()
			}
			return NewClientFromConfig(config, namespace, opts.Timeout)
		}
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if paths := kubeconfigPaths(opts.Kubeconfig); len(paths) > 0 {
		loadingRules.Precedence = paths
	} else if home, err := os.UserHomeDir(); err == nil && home != "" {
		defaultPath := filepath.Join(home, ".kube", "config")
		if _, err := os.Stat(defaultPath); err == nil {
			loadingRules.Precedence = []string{defaultPath}
		}
	}

	configOverrides := &clientcmd.ConfigOverrides{}
	if opts.Context != "" {
		configOverrides.CurrentContext = opts.Context
	}
	if opts.Namespace != "" {
		configOverrides.Context.Namespace = opts.Namespace
	}

	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)
	config, err := kubeConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	namespace, _, err := kubeConfig.Namespace()
	if err != nil || namespace == "" {
		namespace = "default"
	}

	return NewClientFromConfig(config, namespace, opts.Timeout)
}

// NewClientFromConfig creates a client from a REST config
func NewClientFromConfig(config *rest.Config, namespace string, timeout time.Duration) (*Client, error) {
	if timeout > 0 {
		config.Timeout = timeout
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	// The metrics API is optional; GetPodMetrics reports its absence.
	var metrics metricsclient.Interface
	if mc, err := metricsclient.NewForConfig(config); err == nil {
		metrics = mc
	}

	c := NewClientFromInterfaces(clientset, metrics, namespace)
	c.config = config
	return c, nil
}

// NewClientFromInterfaces wraps existing clientsets, e.g. fakes in tests.
// metricsClient may be nil.
func NewClientFromInterfaces(clientset kubernetes.Interface, metricsClient metricsclient.Interface, namespace string) *Client {
	if namespace == "" {
		namespace = "default"
	}
	return &Client{
		clientset:     clientset,
		metricsClient: metricsClient,
		namespace:     namespace,
	}
}

func inClusterNamespace() string {
	data, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace")
	if err != nil {
		return "default"
	}
	if ns := strings.TrimSpace(string(data)); ns != "" {
		return ns
	}
	return "default"
}

// Namespace returns the namespace selected by the kubeconfig or options
func (c *Client) Namespace() string {
	return c.namespace
}

// ns resolves an empty namespace argument to the client default
func (c *Client) ns(namespace string) string {
	if namespace == "" {
		return c.namespace
	}
	return namespace
}

// ListPods returns pods in a namespace, optionally filtered by a label selector
func (c *Client) ListPods(ctx context.Context, namespace, selector string) ([]v1.Pod, error) {
	list, err := c.clientset.CoreV1().Pods(c.ns(namespace)).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	return list.Items, nil
}

// GetPod returns a single pod
func (c *Client) GetPod(ctx context.Context, namespace, name string) (*v1.Pod, error) {
	pod, err := c.clientset.CoreV1().Pods(c.ns(namespace)).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get pod %s: %w", name, err)
	}
	return pod, nil
}

// ListEvents returns events in a namespace and the resource version to
// resume watching from
func (c *Client) ListEvents(ctx context.Context, namespace, fieldSelector string) ([]v1.Event, string, error) {
	list, err := c.clientset.CoreV1().Events(c.ns(namespace)).List(ctx, metav1.ListOptions{
		FieldSelector: fieldSelector,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list events: %w", err)
	}
	return list.Items, list.ResourceVersion, nil
}

// WatchEvents watches for event changes after resourceVersion
func (c *Client) WatchEvents(ctx context.Context, namespace, fieldSelector, resourceVersion string) (watch.Interface, error) {
	w, err := c.clientset.CoreV1().Events(c.ns(namespace)).Watch(ctx, metav1.ListOptions{
		FieldSelector:   fieldSelector,
		ResourceVersion: resourceVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch events: %w", err)
	}
	return w, nil
}

// LogOptions controls a pod log stream
type LogOptions struct {
	Container  string
	Follow     bool
	TailLines  int64
	Timestamps bool
	Previous   bool
	Since      time.Duration
}

// StreamPodLogs returns a stream of pod logs
func (c *Client) StreamPodLogs(ctx context.Context, namespace, pod string, opts LogOptions) (io.ReadCloser, error) {
	podOpts := &v1.PodLogOptions{
		Container:  opts.Container,
		Follow:     opts.Follow,
		Previous:   opts.Previous,
		Timestamps: opts.Timestamps,
	}
	if opts.TailLines > 0 {
		tail := opts.TailLines
		podOpts.TailLines = &tail
	}
	if opts.Since > 0 {
		seconds := int64(opts.Since.Seconds())
		podOpts.SinceSeconds = &seconds
	}

	stream, err := c.clientset.CoreV1().Pods(c.ns(namespace)).GetLogs(pod, podOpts).Stream(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to stream logs for %s: %w", pod, err)
	}
	return stream, nil
}

// PodMetrics represents CPU and memory usage for a pod
type PodMetrics struct {
	Name      string
	Namespace string
	CPU       string // millicores, e.g. "100m"
	Memory    string // e.g. "128Mi"
}

// GetPodMetrics returns metrics for pods in a namespace keyed by pod name
func (c *Client) GetPodMetrics(ctx context.Context, namespace string) (map[string]*PodMetrics, error) {
	if c.metricsClient == nil {
		return nil, ErrMetricsUnavailable
	}

	metrics, err := c.metricsClient.MetricsV1beta1().PodMetricses(c.ns(namespace)).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetricsUnavailable, err)
	}

	result := make(map[string]*PodMetrics, len(metrics.Items))
	for _, m := range metrics.Items {
		var totalCPU int64
		var totalMemory int64

		for _, container := range m.Containers {
			if cpuQuantity, ok := container.Usage[v1.ResourceCPU]; ok {
				totalCPU += cpuQuantity.MilliValue()
			}
			if memQuantity, ok := container.Usage[v1.ResourceMemory]; ok {
				totalMemory += memQuantity.Value()
			}
		}

		result[m.Name] = &PodMetrics{
			Name:      m.Name,
			Namespace: m.Namespace,
			CPU:       formatCPU(totalCPU),
			Memory:    formatMemory(totalMemory),
		}
	}

	return result, nil
}

// formatCPU formats CPU value from millicores to a readable string
func formatCPU(milliCPU int64) string {
	if milliCPU == 0 {
		return "-"
	}
	if milliCPU < 1000 {
		return fmt.Sprintf("%dm", milliCPU)
	}
	return fmt.Sprintf("%d", milliCPU/1000)
}

const (
	Ki = 1024
	Mi = 1024 * Ki
	Gi = 1024 * Mi
)

// formatMemory formats memory value from bytes to a readable string
func formatMemory(bytes int64) string {
	switch {
	case bytes == 0:
		return "-"
	case bytes >= Gi:
		gb := bytes / Gi
		remainder := (bytes % Gi) / Mi
		if remainder >= 100 && gb < 10 {
			return fmt.Sprintf("%d.%dGi", gb, remainder/100)
		}
		return fmt.Sprintf("%dGi", gb)
	case bytes >= Mi:
		return fmt.Sprintf("%dMi", bytes/Mi)
	case bytes >= Ki:
		return fmt.Sprintf("%dKi", bytes/Ki)
	}
	return fmt.Sprintf("%dB", bytes)
}
