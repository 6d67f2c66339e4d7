// Package queryir defines the intermediate representation for object queries.
//
// A query batch arrives as loosely shaped JSON: a list of object queries,
// each carrying an object type name, an optional filter expression tree,
// order-by clauses, pagination bounds and a permission mode. This package
// owns both layers of that representation:
//
//	[wire JSON] → [Node tree] → sanitize → [typed Expr] → [SQL backend]
//
// The Node tree mirrors the wire format one-to-one and is what the
// sanitizer rewrites in place (slug resolution, identifier coercion,
// date macro expansion). Parse then converts a sanitized Node tree into
// the closed set of typed expression variants:
//
//   - Combinator: AND / OR over two subexpressions
//   - Comparison: =, !=, <, >, ~, !~ against a named field
//   - TextSearch: substring search across a query's searchable fields
//   - Relevance: membership in the set of objects related to a target set
//   - Similarity: membership in a similarity-weighted candidate set
//
// Expr and Value are sealed interfaces using the marker method pattern.
// Only types in this package implement them, which keeps type switches in
// the SQL compiler exhaustive and makes invalid expression shapes
// unrepresentable once parsing has succeeded.
//
// All client-input failures in this package and its consumers are reported
// as *BadQueryError. Anything else (storage failures, driver errors)
// propagates unchanged.
package queryir
