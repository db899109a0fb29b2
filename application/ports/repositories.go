package ports

import (
	"context"

	"fsmviz/domain/core/graph"
)

// GraphRepository is the persistence collaborator. The in-memory working set
// stays authoritative: a failed Save is retried later, never blocks an edit.
type GraphRepository interface {
	// Save persists a snapshot (create or replace).
	Save(ctx context.Context, g *graph.Graph) error

	// FindByID retrieves one snapshot by graph ID.
	FindByID(ctx context.Context, id string) (*graph.Graph, error)

	// FindAll retrieves every stored snapshot.
	FindAll(ctx context.Context) ([]*graph.Graph, error)

	// Delete removes a snapshot.
	Delete(ctx context.Context, id string) error
}
