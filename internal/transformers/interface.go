package transformers

import (
	"github.com/HamStudy/kubescroll/internal/core"
)

// Transformer converts a Kubernetes object into a list entry
type Transformer interface {
	// Kind returns the entry kind this transformer produces
	Kind() core.Kind

	// ToEntry converts an object; it fails when given the wrong type
	ToEntry(obj any) (core.Entry, error)
}

var (
	_ Transformer = (*PodTransformer)(nil)
	_ Transformer = (*EventTransformer)(nil)
)
