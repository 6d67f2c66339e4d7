package store

import (
	"context"
	"fmt"
	"strings"
)

// IDsRelatedTo returns ids of sourceType objects related to any of the
// given targetType objects. Relationship rows are undirected for this
// purpose: both edge directions are consulted. An empty target set
// resolves to an empty result.
func (s *Store) IDsRelatedTo(ctx context.Context, sourceType, targetType string, targetIDs []int64) ([]int64, error) {
	if len(targetIDs) == 0 {
		return []int64{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(targetIDs)), ", ")
	idArgs := make([]any, len(targetIDs))
	for i, id := range targetIDs {
		idArgs[i] = id
	}

	query := fmt.Sprintf(`
		SELECT source_id FROM relationships
		WHERE source_type = ? AND dest_type = ? AND dest_id IN (%s)
		UNION
		SELECT dest_id FROM relationships
		WHERE dest_type = ? AND source_type = ? AND source_id IN (%s)
		ORDER BY 1 ASC
	`, placeholders, placeholders)

	args := make([]any, 0, 4+2*len(targetIDs))
	args = append(args, sourceType, targetType)
	args = append(args, idArgs...)
	args = append(args, sourceType, targetType)
	args = append(args, idArgs...)

	ids, err := s.queryIDs(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("related %s for %s: %w", sourceType, targetType, err)
	}
	return ids, nil
}
