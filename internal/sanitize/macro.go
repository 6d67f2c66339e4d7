package sanitize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/veritas-grc/veritas/internal/queryir"
)

// taskClass is the object type whose "start"/"end" field keys are macros
// over the underlying absolute and relative date columns.
const taskClass = "TaskGroupTask"

// expandQuery rewrites task date macro leaves into primitive comparisons.
//
// A leaf comparing "start" or "end" against a slash-separated date form is
// rewritten by the number of parts in its right-hand value:
//
//	MM/DD/YYYY → <key>_date compared with the absolute date
//	MM/DD      → relative_<key>_month = MM AND relative_<key>_day = DD
//	DD         → relative_<key>_day compared with DD
//
// Any other number of parts is a bad query.
func expandQuery(q *queryir.ObjectQuery) error {
	if q.ObjectName != taskClass {
		return nil
	}
	expr := q.Expression()
	if expr == nil {
		return nil
	}
	keys := expressionKeys(expr)
	if !keys["start"] && !keys["end"] {
		return nil
	}
	return expandTaskDates(expr)
}

func expandTaskDates(n *queryir.Node) error {
	op := n.OperatorName()
	if op == "" {
		return nil
	}
	if op == queryir.OpAnd || op == queryir.OpOr {
		for _, side := range []*queryir.Operand{n.Left, n.Right} {
			if side != nil && side.Kind == queryir.OperandNode {
				if err := expandTaskDates(side.Node); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if n.Left == nil || n.Left.Kind != queryir.OperandString {
		return nil
	}
	key := n.Left.Str
	if key != "start" && key != "end" {
		return nil
	}
	if n.Right == nil {
		return badDateForm(key)
	}

	// A bare numeric right-hand side is the DD form.
	if n.Right.Kind == queryir.OperandNumber {
		n.Left = queryir.StringOperand("relative_" + key + "_day")
		return nil
	}
	if n.Right.Kind != queryir.OperandString {
		return badDateForm(key)
	}

	parts := strings.Split(n.Right.Str, "/")
	switch len(parts) {
	case 3:
		nums, err := dateParts(parts)
		if err != nil {
			return err
		}
		date := queryir.Date{Year: nums[2], Month: nums[0], Day: nums[1]}
		if !date.Valid() {
			return queryir.NewBadDateError(key)
		}
		n.Left = queryir.StringOperand(key + "_date")
		n.Right = queryir.DateOperand(date)
	case 2:
		nums, err := dateParts(parts)
		if err != nil {
			return err
		}
		op := n.Op
		n.Op = &queryir.Op{Name: queryir.OpAnd}
		n.Left = queryir.NodeOperand(&queryir.Node{
			Op:    op,
			Left:  queryir.StringOperand("relative_" + key + "_month"),
			Right: numberOperand(nums[0]),
		})
		n.Right = queryir.NodeOperand(&queryir.Node{
			Op:    op,
			Left:  queryir.StringOperand("relative_" + key + "_day"),
			Right: numberOperand(nums[1]),
		})
	case 1:
		nums, err := dateParts(parts)
		if err != nil {
			return err
		}
		n.Left = queryir.StringOperand("relative_" + key + "_day")
		n.Right = numberOperand(nums[0])
	default:
		return badDateForm(key)
	}
	return nil
}

func dateParts(parts []string) ([]int, error) {
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, queryir.BadQueryf(queryir.CodeBadDate, "date must consist of numbers")
		}
		nums[i] = n
	}
	return nums, nil
}

func numberOperand(n int) *queryir.Operand {
	return queryir.NumberOperand(json.Number(strconv.Itoa(n)))
}

func badDateForm(key string) error {
	return queryir.BadQueryf(queryir.CodeBadDate,
		"field %q should be a date of one of the following forms: DD, MM/DD, MM/DD/YYYY", key)
}

// expressionKeys collects the field keys referenced by comparison leaves.
func expressionKeys(n *queryir.Node) map[string]bool {
	keys := make(map[string]bool)
	collectKeys(n, keys)
	return keys
}

func collectKeys(n *queryir.Node, keys map[string]bool) {
	if n == nil {
		return
	}
	op := n.OperatorName()
	if op == queryir.OpAnd || op == queryir.OpOr {
		for _, side := range []*queryir.Operand{n.Left, n.Right} {
			if side != nil && side.Kind == queryir.OperandNode {
				collectKeys(side.Node, keys)
			}
		}
		return
	}
	if n.Left != nil && n.Left.Kind == queryir.OperandString {
		keys[n.Left.Str] = true
	}
}
