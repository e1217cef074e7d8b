package transformers

import (
	"fmt"
	"strings"
	"time"

	v1 "k8s.io/api/core/v1"

	"github.com/HamStudy/kubescroll/internal/core"
)

// EventTransformer turns core/v1 events into entries
type EventTransformer struct{}

// NewEventTransformer creates a new event transformer
func NewEventTransformer() *EventTransformer {
	return &EventTransformer{}
}

// Kind returns the entry kind
func (t *EventTransformer) Kind() core.Kind {
	return core.KindEvent
}

// ToEntry converts an event to an entry
func (t *EventTransformer) ToEntry(obj any) (core.Entry, error) {
	var ev *v1.Event
	switch e := obj.(type) {
	case v1.Event:
		ev = &e
	case *v1.Event:
		ev = e
	default:
		return core.Entry{}, fmt.Errorf("expected Event, got %T", obj)
	}

	key := string(ev.UID)
	if key == "" {
		key = ev.Namespace + "/" + ev.Name
	}

	eventType := ev.Type
	if eventType == "" {
		eventType = v1.EventTypeNormal
	}
	level := core.LevelInfo
	if eventType == v1.EventTypeWarning {
		level = core.LevelWarn
	}

	fields := map[string]string{
		"namespace": ev.Namespace,
		"type":      eventType,
		"reason":    ev.Reason,
		"object":    objectRef(ev.InvolvedObject),
	}
	if ev.Count > 1 {
		fields["count"] = fmt.Sprintf("%d", ev.Count)
	}
	if ev.Source.Component != "" {
		fields["source"] = ev.Source.Component
	}

	return core.Entry{
		Key:    key,
		Kind:   core.KindEvent,
		Title:  ev.Reason,
		Body:   strings.TrimSpace(ev.Message),
		Level:  level,
		Time:   EventTime(ev),
		Fields: fields,
	}, nil
}

// EventTime returns the most recent timestamp recorded on an event
func EventTime(ev *v1.Event) time.Time {
	switch {
	case !ev.LastTimestamp.IsZero():
		return ev.LastTimestamp.Time
	case !ev.EventTime.IsZero():
		return ev.EventTime.Time
	case !ev.FirstTimestamp.IsZero():
		return ev.FirstTimestamp.Time
	}
	return ev.CreationTimestamp.Time
}

func objectRef(ref v1.ObjectReference) string {
	if ref.Kind == "" {
		return ref.Name
	}
	return strings.ToLower(ref.Kind) + "/" + ref.Name
}
