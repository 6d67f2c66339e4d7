package queryir

import "strings"

// Parse converts a sanitized wire node into a typed expression.
//
// A nil node or a node with no operator parses to a nil Expr, meaning no
// filter applies at that position. Unknown operator names are a bad query.
//
// Parse assumes the sanitizer has already run: slugs are resolved and all
// identifiers on relevance and similarity leaves are numeric.
func Parse(node *Node) (Expr, error) {
	if node.OperatorName() == "" {
		return nil, nil
	}

	op := node.Op.Name
	switch op {
	case OpAnd, OpOr:
		return parseCombinator(node, op)
	case OpEqual, OpNotEqual, OpLess, OpGreater, OpContains, OpNotContains:
		return parseComparison(node, CompareOp(op))
	case OpTextSearch:
		return &TextSearch{Text: node.Text}, nil
	case OpRelevant:
		return &Relevance{ObjectName: node.ObjectName, IDs: node.IDs}, nil
	case OpSimilar:
		return &Similarity{ObjectName: node.ObjectName, SeedID: node.ID}, nil
	default:
		return nil, BadQueryf(CodeUnknownOperator, "unknown operator %q", op)
	}
}

func parseCombinator(node *Node, op string) (Expr, error) {
	left, err := parseSide(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := parseSide(node.Right)
	if err != nil {
		return nil, err
	}
	return &Combinator{Op: CombineOp(op), Left: left, Right: right}, nil
}

// parseSide parses one side of a combinator. A missing side or a side that
// is not a nested node behaves like a node with no operator.
func parseSide(o *Operand) (Expr, error) {
	if o == nil || o.Kind != OperandNode {
		return nil, nil
	}
	return Parse(o.Node)
}

func parseComparison(node *Node, op CompareOp) (Expr, error) {
	if node.Left == nil || node.Left.Kind != OperandString {
		return nil, BadQueryf(CodeBadExpression,
			"operator %q expects a field name on the left", op)
	}
	field := strings.ToLower(node.Left.Str)

	value, err := literalValue(node.Right, op)
	if err != nil {
		return nil, err
	}
	return &Comparison{Op: op, Field: field, Value: value}, nil
}

func literalValue(o *Operand, op CompareOp) (Value, error) {
	if o == nil {
		return nil, BadQueryf(CodeBadExpression,
			"operator %q expects a literal on the right", op)
	}
	switch o.Kind {
	case OperandString:
		return String(o.Str), nil
	case OperandNumber:
		if n, err := o.Num.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := o.Num.Float64()
		if err != nil {
			return nil, BadQueryf(CodeBadExpression, "invalid number %q", o.Num)
		}
		return Float(f), nil
	case OperandDate:
		return o.Date, nil
	default:
		return nil, BadQueryf(CodeBadExpression,
			"operator %q expects a literal on the right", op)
	}
}
