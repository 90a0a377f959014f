// Package graph persists extracted models so architectures can be queried
// across runs.
package graph

import (
	"context"
	"errors"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
)

// ErrNotFound is returned by LoadModel and QueryDependents when nothing is
// stored under the key.
var ErrNotFound = errors.New("graph: model not found")

// Repository provides graph storage for extracted models. Models are keyed
// by their orchestrator name.
type Repository interface {
	// StoreModel replaces whatever is stored for the model's orchestrator.
	StoreModel(ctx context.Context, m *model.Model) error
	// LoadModel retrieves a stored model, preserving discovery order.
	LoadModel(ctx context.Context, orchestrator string) (*model.Model, error)
	// QueryDependents returns the distinct services depending on name, sorted.
	QueryDependents(ctx context.Context, orchestrator, name string) ([]string, error)
	// Close releases resources.
	Close(ctx context.Context) error
}

// Key returns the storage key for m.
func Key(m *model.Model) string {
	if m.Orchestrator == "" {
		return "AppHost"
	}
	return m.Orchestrator
}
