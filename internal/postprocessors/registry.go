// Package postprocessors builds the text processors that run after
// normalisation. The chunker is the only built-in.
package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// BuilderFunc creates a Chunker from chunking settings.
type BuilderFunc func(settings domain.ChunkingSettings) (driven.Chunker, error)

// Registry maps chunker names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a builder. Name should match the built chunker's Name().
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a chunker by name.
func (r *Registry) Build(name string, settings domain.ChunkingSettings) (driven.Chunker, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown chunker %q", domain.ErrInvalidInput, name)
	}
	return builder(settings)
}

// Has returns true if a builder with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
