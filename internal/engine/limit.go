package engine

import (
	"encoding/json"

	"github.com/veritas-grc/veritas/internal/queryir"
)

// applyLimit slices ids to the half-open range [from, to).
//
// A missing limit returns ids unchanged. Anything other than a
// two-element integer array is a bad query. Bounds are clamped to the
// result range, so over-long and inverted ranges degrade to shorter or
// empty slices rather than errors.
func applyLimit(ids []int64, raw json.RawMessage) ([]int64, error) {
	if len(raw) == 0 {
		return ids, nil
	}

	var bounds []int
	if err := json.Unmarshal(raw, &bounds); err != nil || len(bounds) != 2 {
		return nil, queryir.BadQueryf(queryir.CodeBadLimit, "invalid 'limit' parameter")
	}

	from, to := bounds[0], bounds[1]
	if from < 0 {
		from = 0
	}
	if to > len(ids) {
		to = len(ids)
	}
	if from >= to {
		return []int64{}, nil
	}
	return ids[from:to], nil
}
