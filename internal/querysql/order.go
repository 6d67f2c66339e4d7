package querysql

import (
	"fmt"
	"strings"

	"github.com/veritas-grc/veritas/internal/queryir"
	"github.com/veritas-grc/veritas/internal/schema"
)

// OrderSpec is the compiled form of a query's order-by clauses: the joins
// each clause requires, in order, and the ordering terms themselves.
// Args belong to the joins; ordering terms carry no parameters.
type OrderSpec struct {
	Joins []string
	Terms []string
	Args  []any
}

// ApplyOrder resolves order-by clauses for a class.
//
// Each clause names a field case-insensitively. The special name
// __similarity__ orders by the weights of the similar filter compiled for
// the same query and requires that filter to exist. A field resolving to a
// relationship orders by the target's sort projection: title for titled
// targets, display name falling back to email for person-like targets;
// targets without a projection are not orderable. Plain attributes order
// by their column. The desc flag reverses the clause.
//
// Multiple clauses apply in the given order, each contributing its own
// join if one is required.
func ApplyOrder(registry *schema.Registry, class *schema.Class, aliases schema.AliasMap, clauses []queryir.OrderBy, similarity *Fragment) (*OrderSpec, error) {
	spec := &OrderSpec{}
	for _, clause := range clauses {
		if err := applyClause(spec, registry, class, aliases, clause, similarity); err != nil {
			return nil, err
		}
	}
	return spec, nil
}

func applyClause(spec *OrderSpec, registry *schema.Registry, class *schema.Class, aliases schema.AliasMap, clause queryir.OrderBy, similarity *Fragment) error {
	key := strings.ToLower(clause.Name)

	if key == queryir.OrderBySimilarity {
		if similarity == nil {
			return queryir.BadQueryf(queryir.CodeBadOrdering,
				"cannot order by %q when no similar filter was applied", queryir.OrderBySimilarity)
		}
		alias := spec.nextAlias()
		spec.Joins = append(spec.Joins,
			"LEFT JOIN ("+similarity.SQL+") AS "+alias+" ON "+alias+".id = t.id")
		spec.Args = append(spec.Args, similarity.Args...)
		spec.Terms = append(spec.Terms, term(alias+".weight", clause.Desc))
		return nil
	}

	target, ok := aliases.Lookup(key)
	if !ok {
		return queryir.NewUnknownAttributeError(class.Name, clause.Name)
	}
	if target.CustomAttrID != 0 {
		return queryir.BadQueryf(queryir.CodeBadOrdering,
			"cannot order by custom attribute %q", clause.Name)
	}

	if target.Relationship == nil {
		spec.Terms = append(spec.Terms, term("t."+target.Attr, clause.Desc))
		return nil
	}

	rel := target.Relationship
	relClass, ok := registry.Resolve(rel.Target)
	if !ok {
		return fmt.Errorf("relationship %s.%s references unknown class %q",
			class.Name, rel.Name, rel.Target)
	}

	var orderExpr string
	alias := spec.nextAlias()
	switch proj := relClass.Projection.(type) {
	case schema.TitleProjection:
		orderExpr = alias + "." + proj.Column
	case schema.NameEmailProjection:
		name := alias + "." + proj.NameColumn
		email := alias + "." + proj.EmailColumn
		orderExpr = "CASE WHEN " + name + " IS NOT NULL AND " + name + " != ''" +
			" THEN " + name + " ELSE " + email + " END"
	default:
		return queryir.BadQueryf(queryir.CodeBadOrdering,
			"sorting by %s is not implemented", relClass.Name)
	}

	spec.Joins = append(spec.Joins,
		"LEFT JOIN "+relClass.Table+" AS "+alias+" ON "+alias+".id = t."+rel.Column)
	spec.Terms = append(spec.Terms, term(orderExpr, clause.Desc))
	return nil
}

// nextAlias returns a fresh table alias for a clause's join.
func (s *OrderSpec) nextAlias() string {
	return fmt.Sprintf("o%d", len(s.Joins)+1)
}

func term(expr string, desc bool) string {
	if desc {
		return expr + " DESC"
	}
	return expr + " ASC"
}
