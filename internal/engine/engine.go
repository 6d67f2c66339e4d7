// Package engine resolves query batches to object id lists.
//
// The engine is the orchestrator over the other core packages: it
// sanitizes the batch once, builds the per-class alias maps once, then
// processes entries strictly in batch order - compiling each entry's
// expression, executing it against the store, filtering the results
// through the authorization gate, and paginating. Sequential processing
// is a correctness requirement, not an optimization: a later entry's
// relevant filter may reference an earlier entry's already-resolved ids.
//
// A batch is owned by exactly one Resolve call; the engine keeps no state
// between calls, so one engine instance serves concurrent requests.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veritas-grc/veritas/internal/queryir"
	"github.com/veritas-grc/veritas/internal/querysql"
	"github.com/veritas-grc/veritas/internal/sanitize"
	"github.com/veritas-grc/veritas/internal/schema"
	"github.com/veritas-grc/veritas/internal/store"
)

// Storage is the store surface the engine needs: compiled query
// execution, slug lookup, relationship resolution and custom attribute
// definition reads. *store.Store implements it.
type Storage interface {
	QueryIDs(ctx context.Context, class *schema.Class, where *querysql.Fragment, order *querysql.OrderSpec) ([]int64, error)
	LookupSlugs(ctx context.Context, class *schema.Class, slugs []string) ([]int64, error)
	IDsRelatedTo(ctx context.Context, sourceType, targetType string, targetIDs []int64) ([]int64, error)
	CustomAttributeDefinitions(ctx context.Context, className string) ([]schema.CustomAttributeDef, error)
}

var _ Storage = (*store.Store)(nil)

// Engine resolves query batches. Safe for concurrent use.
type Engine struct {
	registry *schema.Registry
	store    Storage
	gate     Gate
	tokens   TokenGenerator
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGate sets the authorization gate. Default: AllowAll.
func WithGate(g Gate) Option {
	return func(e *Engine) { e.gate = g }
}

// WithTokenGenerator overrides the request token generator (for testing).
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine over a registry and store.
func New(registry *schema.Registry, storage Storage, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		store:    storage,
		gate:     AllowAll{},
		tokens:   UUIDv7Generator{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve populates every query's ids, in place, in batch order.
//
// Resolution is fail-fast: the first error aborts the whole batch and no
// partial result is returned - on error the batch must be discarded.
// Queries without a filter expression resolve to an empty id list.
func (e *Engine) Resolve(ctx context.Context, batch queryir.Batch) error {
	token := e.tokens.Generate()
	log := e.log.With("request", token)

	if err := sanitize.Batch(ctx, batch, e.registry, e.store); err != nil {
		return err
	}

	aliases, err := e.buildAliases(ctx, batch)
	if err != nil {
		return err
	}

	compiler := &querysql.Compiler{
		Registry: e.registry,
		Resolver: e.store,
		Aliases:  aliases,
		Batch:    batch,
	}

	for i, q := range batch {
		ids, err := e.resolveQuery(ctx, compiler, aliases, q)
		if err != nil {
			return fmt.Errorf("query %d (%s): %w", i, q.ObjectName, err)
		}
		q.IDs = ids
		log.DebugContext(ctx, "query resolved",
			"index", i, "object", q.ObjectName, "count", len(ids))
	}
	return nil
}

// buildAliases builds the alias map for every class named by a batch
// entry, once per batch, including custom-attribute pseudo-fields.
func (e *Engine) buildAliases(ctx context.Context, batch queryir.Batch) (map[string]schema.AliasMap, error) {
	aliases := make(map[string]schema.AliasMap)
	for _, q := range batch {
		if _, done := aliases[q.ObjectName]; done {
			continue
		}
		class, ok := e.registry.Resolve(q.ObjectName)
		if !ok {
			return nil, queryir.BadQueryf(queryir.CodeBadExpression,
				"unknown object type %q", q.ObjectName)
		}
		defs, err := e.store.CustomAttributeDefinitions(ctx, class.Name)
		if err != nil {
			return nil, fmt.Errorf("custom attributes for %s: %w", class.Name, err)
		}
		aliases[q.ObjectName] = schema.BuildAliasMap(class, defs)
	}
	return aliases, nil
}

func (e *Engine) resolveQuery(ctx context.Context, compiler *querysql.Compiler, aliases map[string]schema.AliasMap, q *queryir.ObjectQuery) ([]int64, error) {
	node := q.Expression()
	if node == nil {
		return []int64{}, nil
	}
	class, _ := e.registry.Resolve(q.ObjectName)

	expr, err := queryir.Parse(node)
	if err != nil {
		return nil, err
	}

	result, err := compiler.Compile(ctx, expr, class, q.Fields)
	if err != nil {
		return nil, err
	}

	var order *querysql.OrderSpec
	if len(q.OrderBy) > 0 {
		order, err = querysql.ApplyOrder(e.registry, class, aliases[class.Name], q.OrderBy, result.Similarity)
		if err != nil {
			return nil, err
		}
	}

	ids, err := e.store.QueryIDs(ctx, class, result.Where, order)
	if err != nil {
		return nil, err
	}

	ids, err = e.authorize(ctx, q.Permission(), class, ids)
	if err != nil {
		return nil, err
	}

	return applyLimit(ids, q.Limit)
}

// authorize filters ids through the gate, preserving order.
func (e *Engine) authorize(ctx context.Context, mode queryir.Permission, class *schema.Class, ids []int64) ([]int64, error) {
	allowed := make([]int64, 0, len(ids))
	for _, id := range ids {
		var ok bool
		var err error
		if mode == queryir.PermissionUpdate {
			ok, err = e.gate.CanUpdate(ctx, class.Name, id)
		} else {
			ok, err = e.gate.CanRead(ctx, class.Name, id)
		}
		if err != nil {
			return nil, fmt.Errorf("authorize %s %d: %w", class.Name, id, err)
		}
		if ok {
			allowed = append(allowed, id)
		}
	}
	return allowed, nil
}
