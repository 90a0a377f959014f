package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
)

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu     sync.RWMutex
	models map[string]*model.Model
}

func NewMemory() *MemoryRepository {
	return &MemoryRepository{models: make(map[string]*model.Model)}
}

func (r *MemoryRepository) StoreModel(_ context.Context, m *model.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[Key(m)] = clone(m)
	return nil
}

func (r *MemoryRepository) LoadModel(_ context.Context, orchestrator string) (*model.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[orchestrator]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(m), nil
}

func (r *MemoryRepository) QueryDependents(_ context.Context, orchestrator, name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[orchestrator]
	if !ok {
		return nil, ErrNotFound
	}
	seen := make(map[string]bool)
	var out []string
	for _, d := range m.Dependencies {
		if d.To == name && !seen[d.From] {
			seen[d.From] = true
			out = append(out, d.From)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemoryRepository) Close(context.Context) error { return nil }

func clone(m *model.Model) *model.Model {
	c := model.New()
	c.Orchestrator = m.Orchestrator
	c.Services = append(c.Services, m.Services...)
	c.Resources = append(c.Resources, m.Resources...)
	c.Dependencies = append(c.Dependencies, m.Dependencies...)
	c.Endpoints = append(c.Endpoints, m.Endpoints...)
	return c
}

var _ Repository = (*MemoryRepository)(nil)
