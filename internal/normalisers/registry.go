package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry holds normalisers ordered by priority.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser. Among equal priorities the earlier one wins.
func (r *Registry) Register(normaliser driven.Normaliser) {
	if normaliser == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, normaliser)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise runs the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	n := r.lookup(raw.MIMEType, raw.URI)
	if n == nil {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedType, raw.URI, raw.MIMEType)
	}
	logger.Debug("normalise: %s with %T", raw.URI, n)
	return n.Normalise(ctx, raw)
}

// Supports reports whether a file path has a known extension.
func (r *Registry) Supports(path string) bool {
	return r.lookup("", path) != nil
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			seen[t] = struct{}{}
		}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// lookup matches by MIME type, then by extension.
func (r *Registry) lookup(mimeType, path string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if base, _, _ := strings.Cut(mimeType, ";"); base != "" {
		base = strings.ToLower(strings.TrimSpace(base))
		for _, n := range r.normalisers {
			if contains(n.SupportedMIMETypes(), base) {
				return n
			}
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil
	}
	for _, n := range r.normalisers {
		if contains(n.SupportedExtensions(), ext) {
			return n
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
