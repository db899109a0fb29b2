package services

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"fsmviz/application/ports"
	"fsmviz/domain/core/graph"
	pkgerrors "fsmviz/pkg/errors"
	"fsmviz/pkg/observability"
)

// GraphService owns the working set of FSM graphs. The in-memory map is the
// source of truth; the repository is a persistence collaborator whose
// failures are non-fatal. A snapshot that could not be saved is marked dirty
// and retried on the next committed mutation or an explicit RetrySaves.
type GraphService struct {
	mu      sync.RWMutex
	graphs  map[string]*graph.Graph
	dirty   map[string]struct{}
	repo    ports.GraphRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewGraphService creates a graph service backed by the given repository.
func NewGraphService(repo ports.GraphRepository, logger *zap.Logger, metrics *observability.Metrics) *GraphService {
	return &GraphService{
		graphs:  make(map[string]*graph.Graph),
		dirty:   make(map[string]struct{}),
		repo:    repo,
		logger:  logger,
		metrics: metrics,
	}
}

// Hydrate loads previously persisted graphs into the working set. Entries
// already in memory win over stored ones.
func (s *GraphService) Hydrate(ctx context.Context) error {
	stored, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for _, g := range stored {
		if _, ok := s.graphs[g.ID]; ok {
			continue
		}
		s.graphs[g.ID] = g
		loaded++
	}
	s.logger.Info("working set hydrated", zap.Int("graphs", loaded))
	return nil
}

// Import replaces the working-set entry for each parsed graph and persists
// it. Invalid snapshots are rejected wholesale.
func (s *GraphService) Import(ctx context.Context, graphs []*graph.Graph) error {
	for _, g := range graphs {
		if err := g.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range graphs {
		s.graphs[g.ID] = g
		s.persistLocked(ctx, g)
		s.metrics.GraphImports.Inc()
	}
	return nil
}

// Get returns the latest snapshot of one graph.
func (s *GraphService) Get(id string) (*graph.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.graphs[id]
	if !ok {
		return nil, graphNotFound(id)
	}
	return g, nil
}

// List returns every graph in the working set, ordered by ID.
func (s *GraphService) List() []*graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*graph.Graph, 0, len(s.graphs))
	for _, g := range s.graphs {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Delete removes a graph from the working set and from storage.
func (s *GraphService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[id]; !ok {
		return graphNotFound(id)
	}
	delete(s.graphs, id)
	delete(s.dirty, id)

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete graph from storage",
			zap.String("graphID", id),
			zap.Error(err),
		)
	}
	return nil
}

// Apply runs one mutation against the latest snapshot of a graph and, on
// success, commits the result to the working set and persistence. The
// mutation callback must be pure: it receives the current snapshot and
// returns the successor.
func (s *GraphService) Apply(ctx context.Context, id string, op string, mutate func(*graph.Graph) (*graph.Graph, error)) (*graph.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.graphs[id]
	if !ok {
		return nil, graphNotFound(id)
	}

	next, err := mutate(current)
	if err != nil {
		s.metrics.MutationsRejected.WithLabelValues(op).Inc()
		return nil, err
	}

	s.graphs[id] = next
	s.metrics.MutationsApplied.WithLabelValues(op).Inc()

	s.retryDirtyLocked(ctx)
	s.persistLocked(ctx, next)

	return next, nil
}

// Commit stores an externally produced successor snapshot (e.g. from an edit
// session) for a graph already in the working set.
func (s *GraphService) Commit(ctx context.Context, g *graph.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[g.ID]; !ok {
		return graphNotFound(g.ID)
	}

	s.graphs[g.ID] = g
	s.retryDirtyLocked(ctx)
	s.persistLocked(ctx, g)
	return nil
}

// RetrySaves re-attempts persistence for every dirty graph and returns the
// IDs that are still unsaved.
func (s *GraphService) RetrySaves(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retryDirtyLocked(ctx)

	remaining := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		remaining = append(remaining, id)
	}
	sort.Strings(remaining)
	return remaining
}

// DirtyCount reports how many graphs have unsaved mutations.
func (s *GraphService) DirtyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dirty)
}

// persistLocked saves one snapshot, downgrading failure to a warning and a
// dirty mark. Callers must hold the write lock.
func (s *GraphService) persistLocked(ctx context.Context, g *graph.Graph) {
	if err := s.repo.Save(ctx, g); err != nil {
		s.dirty[g.ID] = struct{}{}
		s.metrics.SaveFailures.Inc()
		s.logger.Warn("graph mutation retained in memory, save failed",
			zap.String("graphID", g.ID),
			zap.Error(err),
		)
		return
	}
	delete(s.dirty, g.ID)
}

func (s *GraphService) retryDirtyLocked(ctx context.Context) {
	for id := range s.dirty {
		g, ok := s.graphs[id]
		if !ok {
			delete(s.dirty, id)
			continue
		}
		if err := s.repo.Save(ctx, g); err != nil {
			continue
		}
		delete(s.dirty, id)
		s.logger.Info("deferred graph save succeeded", zap.String("graphID", id))
	}
}

func graphNotFound(id string) error {
	return pkgerrors.NewNotFoundError("graph " + id).
		WithCode(pkgerrors.CodeGraphNotFound)
}
