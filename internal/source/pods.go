package source

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/HamStudy/kubescroll/internal/core"
	"github.com/HamStudy/kubescroll/internal/k8s"
	"github.com/HamStudy/kubescroll/internal/transformers"
)

// PodOptions configures a PodSource
type PodOptions struct {
	Namespace string
	Selector  string
	Watch     bool
	Interval  time.Duration
	Metrics   bool
	Logger    zerolog.Logger
}

// PodSource lists pods with their containers and metrics. When watching,
// it re-lists on an interval and reports pods that disappeared.
type PodSource struct {
	client      *k8s.Client
	transformer *transformers.PodTransformer
	opts        PodOptions
	seen        map[string]bool
}

// NewPodSource creates a pod source
func NewPodSource(client *k8s.Client, opts PodOptions) *PodSource {
	if opts.Interval <= 0 {
		opts.Interval = core.DefaultRefreshInterval
	}
	return &PodSource{
		client:      client,
		transformer: transformers.NewPodTransformer(),
		opts:        opts,
		seen:        make(map[string]bool),
	}
}

// Name returns a label for the namespace
func (s *PodSource) Name() string {
	ns := s.opts.Namespace
	if ns == "" {
		ns = s.client.Namespace()
	}
	return "pods/" + ns
}

// Run emits the pod list, repeating every Interval when watching
func (s *PodSource) Run(ctx context.Context, emit func(core.Entry)) error {
	if err := s.poll(ctx, emit); err != nil {
		if isCancel(ctx, err) {
			return nil
		}
		return err
	}
	if !s.opts.Watch {
		return nil
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.poll(ctx, emit); err != nil && ctx.Err() == nil {
				s.opts.Logger.Warn().Err(err).Msg("pod refresh failed")
			}
		}
	}
}

func (s *PodSource) poll(ctx context.Context, emit func(core.Entry)) error {
	pods, err := s.client.ListPods(ctx, s.opts.Namespace, s.opts.Selector)
	if err != nil {
		return err
	}

	if s.opts.Metrics {
		metrics, err := s.client.GetPodMetrics(ctx, s.opts.Namespace)
		switch {
		case err == nil:
			s.transformer.SetMetrics(metrics)
		case errors.Is(err, k8s.ErrMetricsUnavailable):
			s.opts.Logger.Debug().Err(err).Msg("disabling pod metrics")
			s.opts.Metrics = false
		default:
			s.opts.Logger.Warn().Err(err).Msg("pod metrics failed")
		}
	}

	sort.Slice(pods, func(i, j int) bool {
		if pods[i].Namespace != pods[j].Namespace {
			return pods[i].Namespace < pods[j].Namespace
		}
		return pods[i].Name < pods[j].Name
	})

	current := make(map[string]bool, len(pods))
	for i := range pods {
		entry, err := s.transformer.ToEntry(&pods[i])
		if err != nil {
			continue
		}
		current[entry.Key] = true
		emit(entry)
	}

	gone := make([]string, 0)
	for key := range s.seen {
		if !current[key] {
			gone = append(gone, key)
		}
	}
	sort.Strings(gone)
	for _, key := range gone {
		emit(core.Entry{Key: key, Kind: core.KindPod, Removed: true})
	}
	s.seen = current

	s.opts.Logger.Debug().Int("pods", len(pods)).Int("removed", len(gone)).Msg("pods listed")
	return nil
}
