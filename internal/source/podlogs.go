package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/HamStudy/kubescroll/internal/core"
	"github.com/HamStudy/kubescroll/internal/k8s"
)

// PodLogOptions selects the pod and containers to stream
type PodLogOptions struct {
	Namespace     string
	Pod           string
	Container     string
	AllContainers bool
	Follow        bool
	TailLines     int64
	Previous      bool
	Mode          Mode
	Logger        zerolog.Logger
}

// PodLogSource streams container logs as entries
type PodLogSource struct {
	client *k8s.Client
	opts   PodLogOptions
}

// NewPodLogSource creates a pod log source
func NewPodLogSource(client *k8s.Client, opts PodLogOptions) *PodLogSource {
	if opts.Mode == "" {
		opts.Mode = ModeMultiline
	}
	return &PodLogSource{client: client, opts: opts}
}

// Name returns the pod name
func (s *PodLogSource) Name() string {
	if s.opts.Container != "" {
		return s.opts.Pod + "/" + s.opts.Container
	}
	return s.opts.Pod
}

// Run streams logs until they end, or until ctx is cancelled when following
func (s *PodLogSource) Run(ctx context.Context, emit func(core.Entry)) error {
	containers := []string{s.opts.Container}
	if s.opts.AllContainers {
		pod, err := s.client.GetPod(ctx, s.opts.Namespace, s.opts.Pod)
		if err != nil {
			return err
		}
		containers = containers[:0]
		for _, c := range pod.Spec.Containers {
			containers = append(containers, c.Name)
		}
	}

	if len(containers) == 1 {
		return s.stream(ctx, containers[0], false, emit)
	}

	// Streams share one emit callback.
	var mu sync.Mutex
	locked := func(e core.Entry) {
		mu.Lock()
		defer mu.Unlock()
		emit(e)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, container := range containers {
		container := container
		g.Go(func() error {
			return s.stream(ctx, container, true, locked)
		})
	}
	return g.Wait()
}

func (s *PodLogSource) stream(ctx context.Context, container string, tagged bool, emit func(core.Entry)) error {
	logger := s.opts.Logger.With().Str("pod", s.opts.Pod).Str("container", container).Logger()

	rc, err := s.client.StreamPodLogs(ctx, s.opts.Namespace, s.opts.Pod, k8s.LogOptions{
		Container:  container,
		Follow:     s.opts.Follow,
		TailLines:  s.opts.TailLines,
		Timestamps: true,
		Previous:   s.opts.Previous,
	})
	if err != nil {
		if isCancel(ctx, err) {
			return nil
		}
		return err
	}
	defer rc.Close()
	logger.Debug().Msg("log stream opened")

	prefix := s.opts.Pod
	if container != "" {
		prefix += "/" + container
	}
	b := newRecordBuilder(prefix, core.KindLog, s.opts.Mode, emit)
	b.timestamps = true
	b.fields = map[string]string{"pod": s.opts.Pod}
	if tagged {
		b.fields["container"] = container
	}

	if err := readAll(ctx, rc, prefix, b); err != nil {
		return fmt.Errorf("logs %s: %w", prefix, err)
	}
	logger.Debug().Msg("log stream closed")
	return nil
}
