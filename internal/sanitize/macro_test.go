package sanitize

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritas-grc/veritas/internal/queryir"
	"github.com/veritas-grc/veritas/internal/schema"
)

func sanitizeOne(t *testing.T, raw string) (*queryir.Node, error) {
	t.Helper()
	batch := decodeBatch(t, raw)
	err := Batch(context.Background(), batch, schema.Default(), fakeSlugs{})
	return batch[0].Expression(), err
}

func taskQuery(left, right string) string {
	return `[
		{
			"object_name": "TaskGroupTask",
			"filters": {
				"expression": {
					"op": {"name": ">"},
					"left": "` + left + `",
					"right": ` + right + `
				}
			}
		}
	]`
}

func TestMacroFullDate(t *testing.T) {
	node, err := sanitizeOne(t, taskQuery("start", `"3/15/2021"`))
	require.NoError(t, err)

	assert.Equal(t, ">", node.OperatorName())
	assert.Equal(t, "start_date", node.Left.Str)
	require.Equal(t, queryir.OperandDate, node.Right.Kind)
	assert.Equal(t, queryir.Date{Year: 2021, Month: 3, Day: 15}, node.Right.Date)
}

func TestMacroMonthDay(t *testing.T) {
	node, err := sanitizeOne(t, taskQuery("end", `"3/15"`))
	require.NoError(t, err)

	// The leaf becomes an AND over the relative month and day columns,
	// each keeping the original operator.
	assert.Equal(t, queryir.OpAnd, node.OperatorName())

	month := node.Left.Node
	assert.Equal(t, ">", month.OperatorName())
	assert.Equal(t, "relative_end_month", month.Left.Str)
	assert.Equal(t, json.Number("3"), month.Right.Num)

	day := node.Right.Node
	assert.Equal(t, ">", day.OperatorName())
	assert.Equal(t, "relative_end_day", day.Left.Str)
	assert.Equal(t, json.Number("15"), day.Right.Num)
}

func TestMacroDayOnlyString(t *testing.T) {
	node, err := sanitizeOne(t, taskQuery("start", `"15"`))
	require.NoError(t, err)

	assert.Equal(t, ">", node.OperatorName())
	assert.Equal(t, "relative_start_day", node.Left.Str)
	assert.Equal(t, json.Number("15"), node.Right.Num)
}

func TestMacroDayOnlyNumber(t *testing.T) {
	node, err := sanitizeOne(t, taskQuery("end", `15`))
	require.NoError(t, err)

	assert.Equal(t, "relative_end_day", node.Left.Str)
	require.Equal(t, queryir.OperandNumber, node.Right.Kind)
	assert.Equal(t, json.Number("15"), node.Right.Num)
}

func TestMacroInsideCombinator(t *testing.T) {
	node, err := sanitizeOne(t, `[
		{
			"object_name": "TaskGroupTask",
			"filters": {
				"expression": {
					"op": {"name": "AND"},
					"left": {"op": {"name": "="}, "left": "start", "right": "1/10"},
					"right": {"op": {"name": "="}, "left": "title", "right": "Review"}
				}
			}
		}
	]`)
	require.NoError(t, err)

	expanded := node.Left.Node
	assert.Equal(t, queryir.OpAnd, expanded.OperatorName())
	assert.Equal(t, "relative_start_month", expanded.Left.Node.Left.Str)

	untouched := node.Right.Node
	assert.Equal(t, "title", untouched.Left.Str)
}

func TestMacroInvalidForms(t *testing.T) {
	tests := []struct {
		name  string
		right string
	}{
		{"four parts", `"1/2/3/4"`},
		{"non-numeric", `"a/b"`},
		{"calendar-invalid date", `"2/30/2020"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sanitizeOne(t, taskQuery("start", tt.right))
			require.Error(t, err)

			var bad *queryir.BadQueryError
			require.ErrorAs(t, err, &bad)
			assert.Equal(t, queryir.CodeBadDate, bad.Code)
		})
	}
}

func TestMacroOnlyAppliesToTasks(t *testing.T) {
	node, err := sanitizeOne(t, `[
		{
			"object_name": "Program",
			"filters": {
				"expression": {
					"op": {"name": "="},
					"left": "start",
					"right": "1/2/3/4"
				}
			}
		}
	]`)
	require.NoError(t, err)
	assert.Equal(t, "start", node.Left.Str, "other object types keep their fields verbatim")
}

func TestMacroLeavesOtherTaskFieldsAlone(t *testing.T) {
	node, err := sanitizeOne(t, `[
		{
			"object_name": "TaskGroupTask",
			"filters": {
				"expression": {
					"op": {"name": "="},
					"left": "title",
					"right": "Review"
				}
			}
		}
	]`)
	require.NoError(t, err)
	assert.Equal(t, "title", node.Left.Str)
}
