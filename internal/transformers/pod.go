package transformers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	v1 "k8s.io/api/core/v1"

	"github.com/HamStudy/kubescroll/internal/core"
	"github.com/HamStudy/kubescroll/internal/k8s"
)

// PodTransformer turns pods into entries with one body line per container
type PodTransformer struct {
	metrics map[string]*k8s.PodMetrics
	mu      sync.RWMutex
}

// NewPodTransformer creates a new pod transformer
func NewPodTransformer() *PodTransformer {
	return &PodTransformer{}
}

// SetMetrics sets the latest pod metrics keyed by pod name
func (t *PodTransformer) SetMetrics(metrics map[string]*k8s.PodMetrics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = metrics
}

// Kind returns the entry kind
func (t *PodTransformer) Kind() core.Kind {
	return core.KindPod
}

// ToEntry converts a pod to an entry
func (t *PodTransformer) ToEntry(obj any) (core.Entry, error) {
	var pod *v1.Pod
	switch p := obj.(type) {
	case v1.Pod:
		pod = &p
	case *v1.Pod:
		pod = p
	default:
		return core.Entry{}, fmt.Errorf("expected Pod, got %T", obj)
	}

	status := PodStatus(pod)

	readyContainers := 0
	var restarts int32
	var lastRestart time.Time
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			readyContainers++
		}
		restarts += cs.RestartCount
		if term := cs.LastTerminationState.Terminated; term != nil && term.FinishedAt.After(lastRestart) {
			lastRestart = term.FinishedAt.Time
		}
	}

	fields := map[string]string{
		"namespace": pod.Namespace,
		"phase":     status,
		"ready":     fmt.Sprintf("%d/%d", readyContainers, len(pod.Spec.Containers)),
		"restarts":  fmt.Sprintf("%d", restarts),
		"node":      valueOrDash(pod.Spec.NodeName),
		"ip":        valueOrDash(pod.Status.PodIP),
	}
	if !lastRestart.IsZero() {
		fields["lastRestart"] = lastRestart.Format(time.RFC3339)
	}

	t.mu.RLock()
	if m, ok := t.metrics[pod.Name]; ok && m.Namespace == pod.Namespace {
		fields["cpu"] = m.CPU
		fields["memory"] = m.Memory
	}
	t.mu.RUnlock()

	return core.Entry{
		Key:    pod.Namespace + "/" + pod.Name,
		Kind:   core.KindPod,
		Title:  pod.Name,
		Body:   containerLines(pod),
		Level:  statusLevel(status),
		Time:   pod.CreationTimestamp.Time,
		Fields: fields,
	}, nil
}

// PodStatus returns the most specific status for a pod, preferring
// container waiting or terminated reasons over the phase
func PodStatus(pod *v1.Pod) string {
	if pod.DeletionTimestamp != nil {
		return "Terminating"
	}

	status := string(pod.Status.Phase)
	if pod.Status.Reason != "" {
		status = pod.Status.Reason
	}

	for _, condition := range pod.Status.Conditions {
		if condition.Type == v1.PodReady && condition.Status != v1.ConditionTrue && condition.Reason != "" &&
			pod.Status.Phase != v1.PodSucceeded {
			status = condition.Reason
		}
	}

	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Waiting != nil && cs.State.Waiting.Reason != "" {
			return cs.State.Waiting.Reason
		}
		if cs.State.Terminated != nil && cs.State.Terminated.Reason != "" {
			return cs.State.Terminated.Reason
		}
	}

	if status == "" {
		return "Unknown"
	}
	return status
}

func statusLevel(status string) string {
	lower := strings.ToLower(status)
	switch {
	case strings.Contains(lower, "error"), strings.Contains(lower, "fail"),
		strings.Contains(lower, "backoff"), strings.Contains(lower, "oomkilled"),
		strings.Contains(lower, "evicted"):
		return core.LevelError
	case strings.Contains(lower, "pending"), strings.Contains(lower, "creating"),
		strings.Contains(lower, "terminating"), strings.Contains(lower, "containersnotready"):
		return core.LevelWarn
	}
	return core.LevelInfo
}

// containerLines describes each container on its own line
func containerLines(pod *v1.Pod) string {
	statuses := make(map[string]v1.ContainerStatus, len(pod.Status.ContainerStatuses))
	for _, cs := range pod.Status.ContainerStatuses {
		statuses[cs.Name] = cs
	}

	var lines []string
	for _, c := range pod.Spec.Containers {
		line := fmt.Sprintf("%s  %s", c.Name, c.Image)
		if cs, ok := statuses[c.Name]; ok {
			line += "  " + containerState(cs.State)
			if term := cs.LastTerminationState.Terminated; term != nil {
				lines = append(lines, line)
				line = fmt.Sprintf("  last: %s (exit %d)", valueOrDash(term.Reason), term.ExitCode)
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func containerState(state v1.ContainerState) string {
	switch {
	case state.Running != nil:
		return "running"
	case state.Waiting != nil:
		return "waiting: " + valueOrDash(state.Waiting.Reason)
	case state.Terminated != nil:
		return "terminated: " + valueOrDash(state.Terminated.Reason)
	}
	return "unknown"
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
