package queryir

// Expr represents a typed filter expression.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the SQL compiler.
//
// A nil Expr is valid and means "no filter at this position": an expression
// node with no operator parses to nil.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// CombineOp is a boolean combinator.
type CombineOp string

const (
	// CombineAnd requires both sides to hold.
	CombineAnd CombineOp = "AND"
	// CombineOr requires either side to hold.
	CombineOr CombineOp = "OR"
)

// Combinator combines two subexpressions with AND or OR.
//
// Either side may be nil (the corresponding wire node had no operator);
// the compiler treats a nil side as absent and keeps only the other.
type Combinator struct {
	Op    CombineOp
	Left  Expr
	Right Expr
}

func (*Combinator) exprNode() {}

// CompareOp is a comparison operator on a named field.
type CompareOp string

const (
	// CompareEqual matches rows whose field equals the literal.
	CompareEqual CompareOp = "="
	// CompareNotEqual is the negation of CompareEqual.
	CompareNotEqual CompareOp = "!="
	// CompareLess matches rows whose field is below the literal.
	CompareLess CompareOp = "<"
	// CompareGreater matches rows whose field is above the literal.
	CompareGreater CompareOp = ">"
	// CompareContains is a case-insensitive substring match.
	CompareContains CompareOp = "~"
	// CompareNotContains is the negation of CompareContains.
	CompareNotContains CompareOp = "!~"
)

// Comparison compares a named field against a literal.
//
// Field is the display name as supplied by the client; the compiler
// resolves it through the object type's alias map.
type Comparison struct {
	Op    CompareOp
	Field string
	Value Value
}

func (*Comparison) exprNode() {}

// TextSearch matches rows where any of the query's declared searchable
// fields contains Text, case-insensitively.
type TextSearch struct {
	Text string
}

func (*TextSearch) exprNode() {}

// Relevance matches rows related to a target set of objects.
//
// ObjectName is the target object type. When it is the PreviousQuery
// sentinel, IDs[0] is instead an index into the batch and the target
// set is that entry's already-resolved type and ids.
type Relevance struct {
	ObjectName string
	IDs        []int64
}

func (*Relevance) exprNode() {}

// Similarity matches rows similar to a single seed object of the target
// type, as defined by the target type's similarity contract.
type Similarity struct {
	ObjectName string
	SeedID     int64
}

func (*Similarity) exprNode() {}
