// Package redis persists graph snapshots as JSON values in Redis, with a
// set index for enumeration.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"fsmviz/domain/core/graph"
	pkgerrors "fsmviz/pkg/errors"
)

const defaultPrefix = "fsmviz:graph:"

// GraphRepository implements ports.GraphRepository on Redis.
type GraphRepository struct {
	client *goredis.Client
	prefix string
}

// Option configures a GraphRepository.
type Option func(*GraphRepository)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(r *GraphRepository) {
		r.prefix = prefix
	}
}

// New creates a repository with its own client.
func New(addr, password string, db int, opts ...Option) *GraphRepository {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a repository over an existing client.
func NewFromClient(client *goredis.Client, opts ...Option) *GraphRepository {
	repo := &GraphRepository{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *GraphRepository) key(id string) string {
	return r.prefix + id
}

func (r *GraphRepository) indexKey() string {
	return r.prefix + "index"
}

// Save stores the snapshot and registers it in the index.
func (r *GraphRepository) Save(ctx context.Context, g *graph.Graph) error {
	data, err := json.Marshal(g)
	if err != nil {
		return pkgerrors.NewStorageError("failed to marshal graph", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(g.ID), data, 0)
	pipe.SAdd(ctx, r.indexKey(), g.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return pkgerrors.NewStorageError("failed to save graph to redis", err)
	}
	return nil
}

// FindByID loads one snapshot. Reconstructed graphs are validated before
// they re-enter the working set.
func (r *GraphRepository) FindByID(ctx context.Context, id string) (*graph.Graph, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, pkgerrors.NewNotFoundError("graph " + id).
				WithCode(pkgerrors.CodeGraphNotFound)
		}
		return nil, pkgerrors.NewStorageError("failed to load graph from redis", err)
	}

	var g graph.Graph
	if err := json.Unmarshal([]byte(val), &g); err != nil {
		return nil, pkgerrors.NewStorageError("failed to unmarshal graph", err)
	}
	if err := g.Validate(); err != nil {
		return nil, pkgerrors.NewStorageError(
			fmt.Sprintf("stored graph %s violates invariants", id), err)
	}
	return &g, nil
}

// FindAll loads every indexed snapshot, skipping index entries whose value
// has gone missing.
func (r *GraphRepository) FindAll(ctx context.Context) ([]*graph.Graph, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, pkgerrors.NewStorageError("failed to read graph index", err)
	}

	graphs := make([]*graph.Graph, 0, len(ids))
	for _, id := range ids {
		g, err := r.FindByID(ctx, id)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}

// Delete removes the snapshot and its index entry.
func (r *GraphRepository) Delete(ctx context.Context, id string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(id))
	pipe.SRem(ctx, r.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return pkgerrors.NewStorageError("failed to delete graph from redis", err)
	}
	return nil
}
