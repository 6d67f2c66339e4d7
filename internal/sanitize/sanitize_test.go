package sanitize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritas-grc/veritas/internal/queryir"
	"github.com/veritas-grc/veritas/internal/schema"
)

// fakeSlugs maps "ClassName/slug" to an id.
type fakeSlugs map[string]int64

func (f fakeSlugs) LookupSlugs(_ context.Context, class *schema.Class, slugs []string) ([]int64, error) {
	var ids []int64
	for _, slug := range slugs {
		if id, ok := f[class.Name+"/"+slug]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func decodeBatch(t *testing.T, raw string) queryir.Batch {
	t.Helper()
	batch, err := queryir.DecodeBatch([]byte(raw))
	require.NoError(t, err)
	return batch
}

func TestBatchCoercesIDs(t *testing.T) {
	batch := decodeBatch(t, `[
		{
			"object_name": "Control",
			"filters": {
				"expression": {
					"op": {"name": "relevant"},
					"object_name": "Program",
					"ids": [1, 2.0, "3"]
				}
			}
		}
	]`)

	err := Batch(context.Background(), batch, schema.Default(), fakeSlugs{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, batch[0].Expression().IDs)
}

func TestBatchResolvesSlugs(t *testing.T) {
	batch := decodeBatch(t, `[
		{
			"object_name": "Control",
			"filters": {
				"expression": {
					"op": {"name": "relevant"},
					"object_name": "Program",
					"ids": [9],
					"slugs": ["PROG-1", "PROG-2"]
				}
			}
		}
	]`)

	slugs := fakeSlugs{"Program/PROG-1": 1, "Program/PROG-2": 2}
	err := Batch(context.Background(), batch, schema.Default(), slugs)
	require.NoError(t, err)

	// Slug-resolved ids append after the explicit ones.
	assert.Equal(t, []int64{9, 1, 2}, batch[0].Expression().IDs)
}

func TestBatchUnknownObjectTypeContributesNothing(t *testing.T) {
	batch := decodeBatch(t, `[
		{
			"object_name": "Control",
			"filters": {
				"expression": {
					"op": {"name": "relevant"},
					"object_name": "Widget",
					"slugs": ["W-1"]
				}
			}
		}
	]`)

	err := Batch(context.Background(), batch, schema.Default(), fakeSlugs{"Widget/W-1": 5})
	require.NoError(t, err)
	assert.Empty(t, batch[0].Expression().IDs)
}

func TestBatchCoercesSingleID(t *testing.T) {
	batch := decodeBatch(t, `[
		{
			"object_name": "Control",
			"filters": {
				"expression": {
					"op": {"name": "similar"},
					"object_name": "Control",
					"id": "17"
				}
			}
		}
	]`)

	err := Batch(context.Background(), batch, schema.Default(), fakeSlugs{})
	require.NoError(t, err)
	assert.Equal(t, int64(17), batch[0].Expression().ID)
}

func TestBatchRecursesIntoCombinators(t *testing.T) {
	batch := decodeBatch(t, `[
		{
			"object_name": "Control",
			"filters": {
				"expression": {
					"op": {"name": "AND"},
					"left": {
						"op": {"name": "relevant"},
						"object_name": "Program",
						"ids": ["4"]
					},
					"right": {
						"op": {"name": "="},
						"left": "title",
						"right": "Alpha"
					}
				}
			}
		}
	]`)

	err := Batch(context.Background(), batch, schema.Default(), fakeSlugs{})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, batch[0].Expression().Left.Node.IDs)
}

func TestBatchBadRelevantIDs(t *testing.T) {
	batch := decodeBatch(t, `[
		{
			"object_name": "Control",
			"filters": {
				"expression": {
					"op": {"name": "relevant"},
					"object_name": "Program",
					"ids": ["not-a-number"]
				}
			}
		}
	]`)

	err := Batch(context.Background(), batch, schema.Default(), fakeSlugs{})
	require.Error(t, err)

	var bad *queryir.BadQueryError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, queryir.CodeBadRelevantIDs, bad.Code)
	assert.Contains(t, bad.Message, "Program")
}

func TestBatchNonRelevantCoercionErrorPropagates(t *testing.T) {
	batch := decodeBatch(t, `[
		{
			"object_name": "Control",
			"filters": {
				"expression": {
					"op": {"name": "similar"},
					"object_name": "Control",
					"id": "seventeen"
				}
			}
		}
	]`)

	err := Batch(context.Background(), batch, schema.Default(), fakeSlugs{})
	require.Error(t, err)
	assert.False(t, queryir.IsBadQuery(err), "only relevant filters translate coercion errors")
}

func TestBatchNoExpression(t *testing.T) {
	batch := decodeBatch(t, `[{"object_name": "Program"}]`)
	err := Batch(context.Background(), batch, schema.Default(), fakeSlugs{})
	require.NoError(t, err)
}
