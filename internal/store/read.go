package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/veritas-grc/veritas/internal/querysql"
	"github.com/veritas-grc/veritas/internal/schema"
)

// QueryIDs executes a compiled query for a class and returns the matching
// ids in the compiled order.
//
// The statement is assembled as:
//
//	SELECT t.id FROM <table> AS t <joins> WHERE <where> ORDER BY <terms>, t.id ASC
//
// The trailing t.id tiebreaker keeps results deterministic when order
// terms compare equal or no ordering was requested. Join parameters come
// before filter parameters, matching placeholder positions in the text.
func (s *Store) QueryIDs(ctx context.Context, class *schema.Class, where *querysql.Fragment, order *querysql.OrderSpec) ([]int64, error) {
	var b strings.Builder
	var args []any

	b.WriteString("SELECT t.id FROM ")
	b.WriteString(class.Table)
	b.WriteString(" AS t")

	if order != nil {
		for _, join := range order.Joins {
			b.WriteString(" ")
			b.WriteString(join)
		}
		args = append(args, order.Args...)
	}

	if where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(where.SQL)
		args = append(args, where.Args...)
	}

	b.WriteString(" ORDER BY ")
	if order != nil {
		for _, term := range order.Terms {
			b.WriteString(term)
			b.WriteString(", ")
		}
	}
	b.WriteString("t.id ASC")

	return s.queryIDs(ctx, b.String(), args...)
}

// LookupSlugs resolves slugs to ids for a class. Types without a slug
// column resolve nothing.
func (s *Store) LookupSlugs(ctx context.Context, class *schema.Class, slugs []string) ([]int64, error) {
	if class.SlugColumn == "" || len(slugs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(slugs)), ", ")
	args := make([]any, len(slugs))
	for i, slug := range slugs {
		args[i] = slug
	}
	query := fmt.Sprintf("SELECT id FROM %s WHERE %s IN (%s) ORDER BY id ASC",
		class.Table, class.SlugColumn, placeholders)
	return s.queryIDs(ctx, query, args...)
}

// CustomAttributeDefinitions returns all custom attribute definitions
// declared for a class name, global and object-level alike; eligibility
// filtering happens in the schema package.
func (s *Store) CustomAttributeDefinitions(ctx context.Context, className string) ([]schema.CustomAttributeDef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, definition_type, object_id, title, multi_valued
		FROM custom_attribute_definitions
		WHERE definition_type = ?
		ORDER BY id ASC
	`, className)
	if err != nil {
		return nil, fmt.Errorf("query custom attribute definitions: %w", err)
	}
	defer rows.Close()

	var defs []schema.CustomAttributeDef
	for rows.Next() {
		var def schema.CustomAttributeDef
		var multi int
		if err := rows.Scan(&def.ID, &def.ClassName, &def.ObjectID, &def.Title, &multi); err != nil {
			return nil, fmt.Errorf("scan custom attribute definition: %w", err)
		}
		def.MultiValued = multi != 0
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom attribute definitions: %w", err)
	}
	return defs, nil
}

// queryIDs runs a SELECT returning a single integer column.
// Returns an empty slice (not nil) when no rows match.
func (s *Store) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}
