package plugins

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores available extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]Extractor),
	}
}

func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[e.Framework()] = e
}

func (r *Registry) Extractor(framework string) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[framework]
	if !ok {
		return nil, fmt.Errorf("no extractor for framework %q", framework)
	}
	return e, nil
}

// Frameworks lists registered framework identifiers in sorted order.
func (r *Registry) Frameworks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
