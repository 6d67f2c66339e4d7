// Package sanitize normalizes raw query batches before parsing.
//
// Sanitization happens in place on the wire-format node tree, once per
// batch: slug references are resolved to numeric identifiers, identifier
// lists are coerced to integers, and the task date macro fields are
// expanded into primitive comparisons.
package sanitize

import (
	"context"
	"fmt"
	"strconv"

	"github.com/veritas-grc/veritas/internal/queryir"
	"github.com/veritas-grc/veritas/internal/schema"
)

// SlugLookup resolves human-readable slugs to object identifiers.
// Implemented by the store.
type SlugLookup interface {
	LookupSlugs(ctx context.Context, class *schema.Class, slugs []string) ([]int64, error)
}

// Batch sanitizes every query in the batch in place.
//
// For each expression node: slugs are looked up for the node's object type
// and their ids appended to the node's id list (an unknown object type
// contributes nothing), then all identifiers are coerced to integers.
// A non-numeric identifier is a bad query when the node is a relevant
// filter, naming the offending object type; on any other node the raw
// coercion error propagates unchanged.
func Batch(ctx context.Context, batch queryir.Batch, registry *schema.Registry, slugs SlugLookup) error {
	for _, q := range batch {
		if err := cleanNode(ctx, q.Expression(), registry, slugs); err != nil {
			return err
		}
		if err := expandQuery(q); err != nil {
			return err
		}
	}
	return nil
}

func cleanNode(ctx context.Context, n *queryir.Node, registry *schema.Registry, slugs SlugLookup) error {
	if n == nil {
		return nil
	}

	ids := make([]int64, 0, len(n.RawIDs))
	for _, raw := range n.RawIDs {
		id, err := coerceID(raw)
		if err != nil {
			return idError(n, err)
		}
		ids = append(ids, id)
	}

	if len(n.Slugs) > 0 {
		if class, ok := registry.Resolve(n.ObjectName); ok {
			resolved, err := slugs.LookupSlugs(ctx, class, n.Slugs)
			if err != nil {
				return err
			}
			ids = append(ids, resolved...)
		}
	}
	n.IDs = ids

	if n.RawID != nil {
		id, err := coerceID(n.RawID)
		if err != nil {
			return idError(n, err)
		}
		n.ID = id
	}

	if n.Left != nil && n.Left.Kind == queryir.OperandNode {
		if err := cleanNode(ctx, n.Left.Node, registry, slugs); err != nil {
			return err
		}
	}
	if n.Right != nil && n.Right.Kind == queryir.OperandNode {
		if err := cleanNode(ctx, n.Right.Node, registry, slugs); err != nil {
			return err
		}
	}
	return nil
}

// idError distinguishes a malformed relevant filter from generic malformed
// input: relevant filters get a bad query naming the object type, anything
// else re-raises the raw coercion error.
func idError(n *queryir.Node, err error) error {
	if n.OperatorName() == queryir.OpRelevant {
		return queryir.BadQueryf(queryir.CodeBadRelevantIDs,
			"invalid relevant filter for %s", n.ObjectName)
	}
	return err
}

func coerceID(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot coerce %T to an object id", raw)
	}
}
