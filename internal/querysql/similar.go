package querysql

import (
	"github.com/veritas-grc/veritas/internal/queryir"
	"github.com/veritas-grc/veritas/internal/schema"
)

// compileSimilarity matches rows of the requesting class that are similar
// to the seed object, and records the weights subquery for similarity
// ordering in the same query.
func (cp *compilation) compileSimilarity(e *queryir.Similarity) (*Fragment, error) {
	seedClass, ok := cp.Registry.Resolve(e.ObjectName)
	if !ok {
		return nil, queryir.BadQueryf(queryir.CodeBadExpression,
			"unknown object type %q in similar filter", e.ObjectName)
	}
	if seedClass.Similarity == nil {
		return nil, queryir.BadQueryf(queryir.CodeNoSimilarity,
			"%s does not define weights to count relationships similarity", seedClass.Name)
	}

	sub := similarityQuery(seedClass, e.SeedID, cp.class.Name)
	cp.similarity = sub
	return &Fragment{
		SQL:  "t.id IN (SELECT id FROM (" + sub.SQL + "))",
		Args: sub.Args,
	}, nil
}

// similarityQuery builds the (id, weight) subquery for objects of
// candidateType similar to the seed: candidates sharing related objects
// with the seed, weighted by the shared-neighbor count and cut off at the
// seed class's threshold.
//
// The relationships table is undirected for this purpose, so both edge
// directions are folded together before matching.
func similarityQuery(seedClass *schema.Class, seedID int64, candidateType string) *Fragment {
	threshold := seedClass.Similarity.Threshold
	if threshold < 1 {
		threshold = 1
	}

	sql := "SELECT cand.obj_id AS id, COUNT(*) AS weight" +
		" FROM (" +
		"SELECT dest_type AS nb_type, dest_id AS nb_id FROM relationships" +
		" WHERE source_type = ? AND source_id = ?" +
		" UNION " +
		"SELECT source_type, source_id FROM relationships" +
		" WHERE dest_type = ? AND dest_id = ?" +
		") AS nb" +
		" JOIN (" +
		"SELECT source_type AS obj_type, source_id AS obj_id, dest_type AS nb_type, dest_id AS nb_id" +
		" FROM relationships" +
		" UNION " +
		"SELECT dest_type, dest_id, source_type, source_id FROM relationships" +
		") AS cand ON cand.nb_type = nb.nb_type AND cand.nb_id = nb.nb_id" +
		" WHERE cand.obj_type = ?"
	args := []any{
		seedClass.Name, seedID,
		seedClass.Name, seedID,
		candidateType,
	}

	if candidateType == seedClass.Name {
		sql += " AND cand.obj_id != ?"
		args = append(args, seedID)
	}

	sql += " GROUP BY cand.obj_id HAVING COUNT(*) >= ?"
	args = append(args, threshold)

	return &Fragment{SQL: sql, Args: args}
}
