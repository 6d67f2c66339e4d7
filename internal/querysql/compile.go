package querysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/veritas-grc/veritas/internal/queryir"
	"github.com/veritas-grc/veritas/internal/schema"
)

// RelationshipResolver returns ids of the target type related to a set of
// objects. Implemented by the store over the relationships table.
type RelationshipResolver interface {
	IDsRelatedTo(ctx context.Context, sourceType, targetType string, targetIDs []int64) ([]int64, error)
}

// Compiler compiles typed expressions against one query batch.
//
// Aliases must hold the alias map for every class named by a batch entry;
// the engine builds them once per batch. Batch is consulted only for
// relevance leaves referencing an earlier entry's resolved ids.
type Compiler struct {
	Registry *schema.Registry
	Resolver RelationshipResolver
	Aliases  map[string]schema.AliasMap
	Batch    queryir.Batch
}

// Result is the outcome of compiling one query's expression.
type Result struct {
	// Where is the filter predicate, nil when the expression imposes none.
	Where *Fragment

	// Similarity is the (id, weight) subquery produced by a similar
	// filter, carried here so similarity ordering in the same query can
	// join against it. Nil when no similar filter was compiled.
	Similarity *Fragment
}

// Compile compiles an expression for the given class. The query's declared
// searchable field names feed text_search leaves. A nil expression
// compiles to an empty result (no filter).
func (c *Compiler) Compile(ctx context.Context, expr queryir.Expr, class *schema.Class, fields []string) (*Result, error) {
	if expr == nil {
		return &Result{}, nil
	}
	cp := &compilation{
		Compiler: c,
		class:    class,
		aliases:  c.Aliases[class.Name],
		fields:   fields,
	}
	where, err := cp.compile(ctx, expr)
	if err != nil {
		return nil, err
	}
	return &Result{Where: where, Similarity: cp.similarity}, nil
}

// compilation is the per-expression state of one Compile call.
type compilation struct {
	*Compiler
	class      *schema.Class
	aliases    schema.AliasMap
	fields     []string
	similarity *Fragment
}

func (cp *compilation) compile(ctx context.Context, expr queryir.Expr) (*Fragment, error) {
	switch e := expr.(type) {
	case *queryir.Combinator:
		return cp.compileCombinator(ctx, e)
	case *queryir.Comparison:
		return cp.compileComparison(e)
	case *queryir.TextSearch:
		return cp.compileTextSearch(e)
	case *queryir.Relevance:
		return cp.compileRelevance(ctx, e)
	case *queryir.Similarity:
		return cp.compileSimilarity(e)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

// compileCombinator combines both sides. A nil side compiles to no filter
// and drops out; two nil sides leave no filter at all.
func (cp *compilation) compileCombinator(ctx context.Context, e *queryir.Combinator) (*Fragment, error) {
	var left, right *Fragment
	var err error
	if e.Left != nil {
		if left, err = cp.compile(ctx, e.Left); err != nil {
			return nil, err
		}
	}
	if e.Right != nil {
		if right, err = cp.compile(ctx, e.Right); err != nil {
			return nil, err
		}
	}
	switch {
	case left == nil:
		return right, nil
	case right == nil:
		return left, nil
	case e.Op == queryir.CombineOr:
		return combine("OR", left, right), nil
	default:
		return combine("AND", left, right), nil
	}
}

// pred builds the operator-specific piece of SQL once the column
// expression for the field is known. It is handed to alias targets so
// that custom attribute pseudo-fields and relationship projections can
// apply the comparison to their own columns.
type pred func(column string) *Fragment

func (cp *compilation) compileComparison(e *queryir.Comparison) (*Fragment, error) {
	target, ok := cp.aliases.Lookup(e.Field)
	if !ok {
		return nil, queryir.NewUnknownAttributeError(cp.class.Name, e.Field)
	}

	value, err := autocast(target.Attr, e.Field, e.Value)
	if err != nil {
		return nil, err
	}

	p, negated := comparisonPred(e.Op, value)
	frag, err := cp.withTarget(e.Field, target, p)
	if err != nil {
		return nil, err
	}
	if negated {
		frag = not(frag)
	}
	return frag, nil
}

// comparisonPred returns the positive predicate for an operator and
// whether the result must be negated. Negation wraps the whole resolved
// predicate, so NOT applies outside custom builders too.
func comparisonPred(op queryir.CompareOp, v queryir.Value) (pred, bool) {
	param := queryir.Param(v)
	like := func(column string) *Fragment {
		// SQLite LIKE is case-insensitive for ASCII, matching the
		// case-insensitive contains contract.
		return &Fragment{SQL: column + " LIKE ?", Args: []any{fmt.Sprintf("%%%v%%", param)}}
	}
	cmp := func(operator string) pred {
		return func(column string) *Fragment {
			return &Fragment{SQL: column + " " + operator + " ?", Args: []any{param}}
		}
	}
	switch op {
	case queryir.CompareNotEqual:
		return cmp("="), true
	case queryir.CompareLess:
		return cmp("<"), false
	case queryir.CompareGreater:
		return cmp(">"), false
	case queryir.CompareContains:
		return like, false
	case queryir.CompareNotContains:
		return like, true
	default:
		return cmp("="), false
	}
}

// autocast parses date literals for date-typed attributes. Whether an
// attribute is date-typed is decided by its resolved name: it contains
// "date" without "relative", or is exactly start_date/end_date.
func autocast(attr, field string, v queryir.Value) (queryir.Value, error) {
	if !isDateAttr(attr) {
		return v, nil
	}
	switch val := v.(type) {
	case queryir.Date:
		return val, nil
	case queryir.String:
		return queryir.ParseDate(field, string(val))
	default:
		return nil, queryir.NewBadDateError(field)
	}
}

func isDateAttr(attr string) bool {
	if attr == "start_date" || attr == "end_date" {
		return true
	}
	return strings.Contains(attr, "date") && !strings.Contains(attr, "relative")
}

// withTarget applies a predicate to whatever the alias target resolves to:
// a custom attribute value, a relationship projection, or a plain column.
func (cp *compilation) withTarget(field string, target schema.AliasTarget, p pred) (*Fragment, error) {
	switch {
	case target.CustomAttrID != 0:
		return cp.customAttributeFilter(target.CustomAttrID, p), nil
	case target.Relationship != nil:
		return cp.relationshipFilter(field, target.Relationship, p)
	default:
		return p("t." + target.Attr), nil
	}
}

// customAttributeFilter matches rows having a custom attribute value that
// satisfies the predicate.
func (cp *compilation) customAttributeFilter(defID int64, p pred) *Fragment {
	inner := p("cav.attribute_value")
	return &Fragment{
		SQL: "EXISTS (SELECT 1 FROM custom_attribute_values AS cav" +
			" WHERE cav.attributable_type = ? AND cav.attributable_id = t.id" +
			" AND cav.custom_attribute_id = ? AND " + inner.SQL + ")",
		Args: append([]any{cp.class.Name, defID}, inner.Args...),
	}
}

// relationshipFilter matches rows whose related object satisfies the
// predicate on its sort projection: title for titled targets, name or
// email for person-like targets.
func (cp *compilation) relationshipFilter(field string, rel *schema.Relationship, p pred) (*Fragment, error) {
	relClass, ok := cp.Registry.Resolve(rel.Target)
	if !ok {
		return nil, fmt.Errorf("relationship %s.%s references unknown class %q",
			cp.class.Name, rel.Name, rel.Target)
	}

	var inner *Fragment
	switch proj := relClass.Projection.(type) {
	case schema.TitleProjection:
		inner = p("r." + proj.Column)
	case schema.NameEmailProjection:
		inner = combine("OR", p("r."+proj.NameColumn), p("r."+proj.EmailColumn))
	default:
		return nil, queryir.BadQueryf(queryir.CodeBadExpression,
			"cannot filter %s by relationship %q", cp.class.Name, field)
	}

	return &Fragment{
		SQL: "EXISTS (SELECT 1 FROM " + relClass.Table + " AS r" +
			" WHERE r.id = t." + rel.Column + " AND " + inner.SQL + ")",
		Args: inner.Args,
	}, nil
}

// compileTextSearch builds a disjunction of contains-matches across the
// query's searchable fields that exist for this class. With no usable
// field the search matches nothing.
func (cp *compilation) compileTextSearch(e *queryir.TextSearch) (*Fragment, error) {
	p := func(column string) *Fragment {
		return &Fragment{SQL: column + " LIKE ?", Args: []any{"%" + e.Text + "%"}}
	}

	var frag *Fragment
	for _, field := range cp.fields {
		target, ok := cp.aliases.Lookup(field)
		if !ok {
			continue
		}
		part, err := cp.withTarget(field, target, p)
		if err != nil {
			return nil, err
		}
		if frag == nil {
			frag = part
		} else {
			frag = combine("OR", frag, part)
		}
	}
	if frag == nil {
		return matchNone(), nil
	}
	return frag, nil
}

// compileRelevance resolves the target set, consulting an earlier batch
// entry for the PreviousQuery sentinel, and matches rows related to it.
func (cp *compilation) compileRelevance(ctx context.Context, e *queryir.Relevance) (*Fragment, error) {
	objectName, ids := e.ObjectName, e.IDs
	if objectName == queryir.PreviousQuery {
		if len(ids) == 0 {
			return nil, queryir.BadQueryf(queryir.CodeBadRelevantIDs,
				"invalid relevant filter for %s", objectName)
		}
		idx := int(ids[0])
		if idx < 0 || idx >= len(cp.Batch) {
			return nil, queryir.BadQueryf(queryir.CodeBadRelevantIDs,
				"previous query index %d out of range", idx)
		}
		prev := cp.Batch[idx]
		if prev.IDs == nil {
			return nil, queryir.BadQueryf(queryir.CodeBadRelevantIDs,
				"previous query index %d is not resolved yet", idx)
		}
		objectName, ids = prev.ObjectName, prev.IDs
	}

	related, err := cp.Resolver.IDsRelatedTo(ctx, cp.class.Name, objectName, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve related %s for %s: %w", objectName, cp.class.Name, err)
	}
	return inSet("t.id", related), nil
}
