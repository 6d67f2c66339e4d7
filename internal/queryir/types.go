package queryir

import (
	"encoding/json"
	"fmt"
)

// Permission is the access mode a query demands for every returned object.
type Permission string

const (
	// PermissionRead requires read access to each returned object.
	PermissionRead Permission = "read"

	// PermissionUpdate requires update access to each returned object.
	PermissionUpdate Permission = "update"
)

// Batch is an ordered sequence of object queries.
//
// Order matters: a later query may reference an earlier query's resolved
// ids through a relevant filter on the PreviousQuery sentinel, so batches
// are always processed sequentially and never reordered.
type Batch []*ObjectQuery

// PreviousQuery is the sentinel object name on a relevant leaf whose target
// set is the already-resolved ids of an earlier batch entry. The leaf's
// first id is the index of that entry.
const PreviousQuery = "__previous__"

// OrderBySimilarity is the special order-by field name that sorts by the
// weights of the similarity filter applied in the same query.
const OrderBySimilarity = "__similarity__"

// ObjectQuery describes one object type's filter within a batch.
//
// Limit is kept as raw JSON because malformed bounds are a client error
// that must surface as a bad query, not a decode failure; the engine
// validates it when pagination is applied.
type ObjectQuery struct {
	ObjectName  string          `json:"object_name"`
	Permissions Permission      `json:"permissions,omitempty"`
	OrderBy     []OrderBy       `json:"order_by,omitempty"`
	Limit       json.RawMessage `json:"limit,omitempty"`
	Filters     *Filters        `json:"filters,omitempty"`
	Fields      []string        `json:"fields,omitempty"`

	// IDs is the resolved result: the ordered, permission-filtered,
	// paginated identifiers. Unset before resolution, set (possibly
	// empty, never null) after.
	IDs []int64 `json:"ids,omitempty"`
}

// Permission returns the query's access mode, defaulting to read.
func (q *ObjectQuery) Permission() Permission {
	if q.Permissions == PermissionUpdate {
		return PermissionUpdate
	}
	return PermissionRead
}

// Expression returns the root filter node, or nil when the query carries no
// filter expression at all.
func (q *ObjectQuery) Expression() *Node {
	if q.Filters == nil {
		return nil
	}
	return q.Filters.Expression
}

// Filters wraps the filter expression tree on the wire.
type Filters struct {
	Expression *Node `json:"expression,omitempty"`
}

// OrderBy is a single ordering clause.
type OrderBy struct {
	Name string `json:"name"`
	Desc bool   `json:"desc,omitempty"`
}

// Op names the operator of an expression node.
type Op struct {
	Name string `json:"name"`
}

// Operator names accepted on the wire.
const (
	OpAnd         = "AND"
	OpOr          = "OR"
	OpEqual       = "="
	OpNotEqual    = "!="
	OpLess        = "<"
	OpGreater     = ">"
	OpContains    = "~"
	OpNotContains = "!~"
	OpTextSearch  = "text_search"
	OpRelevant    = "relevant"
	OpSimilar     = "similar"
)

// Node is one node of the wire-format expression tree.
//
// Composite nodes (AND/OR) use Left and Right as subexpressions.
// Comparison leaves use Left as a field name and Right as a literal.
// Relevance leaves carry ObjectName plus Slugs and RawIDs; Similarity
// leaves carry ObjectName plus RawID. The sanitizer resolves Slugs into
// identifiers and coerces RawIDs/RawID into IDs/ID before parsing.
type Node struct {
	Op    *Op      `json:"op,omitempty"`
	Left  *Operand `json:"left,omitempty"`
	Right *Operand `json:"right,omitempty"`

	ObjectName string   `json:"object_name,omitempty"`
	Slugs      []string `json:"slugs,omitempty"`
	RawIDs     []any    `json:"ids,omitempty"`
	RawID      any      `json:"id,omitempty"`
	Text       string   `json:"text,omitempty"`

	// Sanitized identifiers, populated by the sanitizer.
	IDs []int64 `json:"-"`
	ID  int64   `json:"-"`
}

// OperatorName returns the node's operator name, or "" when the node has no
// operator (a missing expression position).
func (n *Node) OperatorName() string {
	if n == nil || n.Op == nil {
		return ""
	}
	return n.Op.Name
}

// OperandKind discriminates the wire shapes an operand can take.
type OperandKind int

const (
	// OperandNode is a nested expression object.
	OperandNode OperandKind = iota
	// OperandString is a string: a field name on the left, a literal on the right.
	OperandString
	// OperandNumber is a numeric literal.
	OperandNumber
	// OperandDate is a date literal. Never decoded from JSON; produced by
	// the task date macro expansion.
	OperandDate
)

// Operand is either a nested expression node or a scalar, depending on its
// position in the tree.
type Operand struct {
	Kind OperandKind
	Node *Node
	Str  string
	Num  json.Number
	Date Date
}

// UnmarshalJSON decodes an operand from its wire shape: an object becomes a
// nested Node, a string or number becomes a scalar.
func (o *Operand) UnmarshalJSON(data []byte) error {
	switch data[0] {
	case '{':
		var n Node
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		o.Kind = OperandNode
		o.Node = &n
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		o.Kind = OperandString
		o.Str = s
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("unsupported operand %s", data)
		}
		o.Kind = OperandNumber
		o.Num = num
		return nil
	}
}

// MarshalJSON encodes the operand back into its wire shape.
func (o *Operand) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OperandNode:
		return json.Marshal(o.Node)
	case OperandString:
		return json.Marshal(o.Str)
	case OperandNumber:
		return json.Marshal(o.Num)
	case OperandDate:
		return json.Marshal(o.Date.String())
	default:
		return nil, fmt.Errorf("unknown operand kind %d", o.Kind)
	}
}

// StringOperand builds a string operand (field names, string literals).
func StringOperand(s string) *Operand {
	return &Operand{Kind: OperandString, Str: s}
}

// NumberOperand builds a numeric operand.
func NumberOperand(num json.Number) *Operand {
	return &Operand{Kind: OperandNumber, Num: num}
}

// DateOperand builds a date operand.
func DateOperand(d Date) *Operand {
	return &Operand{Kind: OperandDate, Date: d}
}

// NodeOperand wraps a nested expression node as an operand.
func NodeOperand(n *Node) *Operand {
	return &Operand{Kind: OperandNode, Node: n}
}

// DecodeBatch decodes a JSON query batch.
func DecodeBatch(data []byte) (Batch, error) {
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("decode query batch: %w", err)
	}
	return batch, nil
}
