package domain

import "context"

// GraphRepository is the durable key-value store of whole graphs, keyed by id.
// It has no schema awareness.
type GraphRepository interface {
	// List returns graphs ordered by creation time, newest first.
	List(ctx context.Context, page PageRequest) ([]Graph, int64, error)
	Get(ctx context.Context, id string) (*Graph, error)
	// Create stores a new graph. When id is nil a fresh identifier is allocated.
	Create(ctx context.Context, init GraphInit, id *string) (*Graph, error)
	// Update replaces the stored document of an existing graph.
	Update(ctx context.Context, g *Graph) (*Graph, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}
