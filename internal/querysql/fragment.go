// Package querysql compiles typed filter expressions into parameterized
// SQL for SQLite.
//
// Literal values are never interpolated into SQL text; every fragment
// carries its positional arguments alongside the text. The compiler
// resolves client-supplied field names through the per-class alias map,
// autocasts date literals, dispatches custom attribute pseudo-fields and
// relationship projections, and resolves relevance sets through the
// relationship resolver. The engine hands the resulting fragments to the
// store, which assembles and executes the final statement.
package querysql

import "strings"

// Fragment is a piece of parameterized SQL.
type Fragment struct {
	SQL  string
	Args []any
}

// matchNone is a predicate that no row satisfies, used for empty
// relevance sets and text searches with no usable fields.
func matchNone() *Fragment {
	return &Fragment{SQL: "0 = 1"}
}

// not wraps a fragment in a negation.
func not(f *Fragment) *Fragment {
	return &Fragment{SQL: "NOT (" + f.SQL + ")", Args: f.Args}
}

// combine joins two fragments with a boolean operator, parenthesized.
func combine(op string, left, right *Fragment) *Fragment {
	return &Fragment{
		SQL:  "(" + left.SQL + " " + op + " " + right.SQL + ")",
		Args: append(append([]any{}, left.Args...), right.Args...),
	}
}

// inSet builds a membership test over a literal id set. The empty set
// matches nothing.
func inSet(column string, ids []int64) *Fragment {
	if len(ids) == 0 {
		return matchNone()
	}
	placeholders := strings.Repeat("?, ", len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return &Fragment{
		SQL:  column + " IN (" + placeholders[:len(placeholders)-2] + ")",
		Args: args,
	}
}
