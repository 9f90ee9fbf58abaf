package extract

import (
	"context"
	"fmt"
	"sync"

	"musicca/internal/media"
)

// Registry holds installed extractors and routes inputs to them.
type Registry struct {
	mu         sync.RWMutex
	extractors []Extractor
	byID       map[string]Extractor
}

// NewRegistry creates a registry with the given extractors installed.
func NewRegistry(exts ...Extractor) *Registry {
	r := &Registry{byID: make(map[string]Extractor)}
	for _, ext := range exts {
		r.Register(ext)
	}
	return r
}

// Register installs ext. An extractor with the same ID is replaced.
func (r *Registry) Register(ext Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[ext.ID()]; ok {
		for i, e := range r.extractors {
			if e.ID() == ext.ID() {
				r.extractors[i] = ext
			}
		}
	} else {
		r.extractors = append(r.extractors, ext)
	}
	r.byID[ext.ID()] = ext
}

// Get returns the extractor registered under id.
func (r *Registry) Get(id string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.byID[id]
	return ext, ok
}

// Lookup finds an extractor by ID or by Name.
func (r *Registry) Lookup(name string) (Extractor, bool) {
	if ext, ok := r.Get(name); ok {
		return ext, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ext := range r.extractors {
		if ext.Name() == name {
			return ext, true
		}
	}
	return nil, false
}

// Extractors returns the installed extractors in registration order.
func (r *Registry) Extractors() []Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Extractor, len(r.extractors))
	copy(out, r.extractors)
	return out
}

// Find returns the first extractor whose Validate accepts input.
func (r *Registry) Find(input string) (Extractor, error) {
	for _, ext := range r.Extractors() {
		if ext.Validate(input) {
			return ext, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedInput, input)
}

// Extract resolves input with the first extractor that accepts it.
func (r *Registry) Extract(ctx context.Context, input string) ([]*Media, error) {
	ext, err := r.Find(input)
	if err != nil {
		return nil, err
	}
	return ext.Extract(ctx, input)
}

// Search runs a search on the extractor registered under name.
func (r *Registry) Search(ctx context.Context, name, query string, kind media.Kind, limit int) (*SearchPage, error) {
	ext, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no extractor named %q", name)
	}
	s, ok := ext.(Searcher)
	if !ok {
		return nil, fmt.Errorf("%s: %w", ext.Name(), ErrNotSearchable)
	}
	return s.Search(ctx, query, kind, limit)
}
