package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/HamStudy/kubescroll/internal/core"
	"github.com/HamStudy/kubescroll/internal/k8s"
	"github.com/HamStudy/kubescroll/internal/transformers"
)

// EventOptions configures an EventSource
type EventOptions struct {
	Namespace     string
	FieldSelector string
	Watch         bool
	RetryDelay    time.Duration
	Logger        zerolog.Logger
}

// EventSource lists namespace events and optionally watches for more
type EventSource struct {
	client      *k8s.Client
	transformer *transformers.EventTransformer
	opts        EventOptions
}

// NewEventSource creates an event source
func NewEventSource(client *k8s.Client, opts EventOptions) *EventSource {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &EventSource{
		client:      client,
		transformer: transformers.NewEventTransformer(),
		opts:        opts,
	}
}

// Name returns a label for the namespace
func (s *EventSource) Name() string {
	ns := s.opts.Namespace
	if ns == "" {
		ns = s.client.Namespace()
	}
	return "events/" + ns
}

// Run emits existing events oldest first, then watched changes
func (s *EventSource) Run(ctx context.Context, emit func(core.Entry)) error {
	resourceVersion, err := s.list(ctx, emit)
	if err != nil {
		if isCancel(ctx, err) {
			return nil
		}
		return err
	}
	if !s.opts.Watch {
		return nil
	}

	for {
		resourceVersion, err = s.watch(ctx, resourceVersion, emit)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.opts.Logger.Warn().Err(err).Msg("event watch failed, relisting")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.opts.RetryDelay):
			}
			if resourceVersion, err = s.list(ctx, emit); err != nil && ctx.Err() == nil {
				s.opts.Logger.Warn().Err(err).Msg("event relist failed")
			}
		}
	}
}

func (s *EventSource) list(ctx context.Context, emit func(core.Entry)) (string, error) {
	events, resourceVersion, err := s.client.ListEvents(ctx, s.opts.Namespace, s.opts.FieldSelector)
	if err != nil {
		return "", err
	}

	sort.SliceStable(events, func(i, j int) bool {
		return transformers.EventTime(&events[i]).Before(transformers.EventTime(&events[j]))
	})

	for i := range events {
		entry, err := s.transformer.ToEntry(&events[i])
		if err != nil {
			continue
		}
		emit(entry)
	}
	s.opts.Logger.Debug().Int("count", len(events)).Msg("events listed")
	return resourceVersion, nil
}

// watch consumes one watch until it closes. It returns the last resource
// version seen so the next watch can resume from it.
func (s *EventSource) watch(ctx context.Context, resourceVersion string, emit func(core.Entry)) (string, error) {
	w, err := s.client.WatchEvents(ctx, s.opts.Namespace, s.opts.FieldSelector, resourceVersion)
	if err != nil {
		return resourceVersion, err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return resourceVersion, nil
		case ev, ok := <-w.ResultChan():
			if !ok {
				return resourceVersion, nil
			}
			switch ev.Type {
			case watch.Added, watch.Modified, watch.Deleted:
				event, ok := ev.Object.(*v1.Event)
				if !ok {
					continue
				}
				if event.ResourceVersion != "" {
					resourceVersion = event.ResourceVersion
				}
				entry, err := s.transformer.ToEntry(event)
				if err != nil {
					continue
				}
				entry.Removed = ev.Type == watch.Deleted
				emit(entry)
			case watch.Error:
				return resourceVersion, fmt.Errorf("watch error: %v", ev.Object)
			}
		}
	}
}
