package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritas-grc/veritas/internal/querysql"
	"github.com/veritas-grc/veritas/internal/schema"
	"github.com/veritas-grc/veritas/internal/store"
	"github.com/veritas-grc/veritas/internal/testutil"
)

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	// Every object table exists and is queryable.
	for _, table := range []string{
		"people", "programs", "audits", "controls", "assessments",
		"task_group_tasks", "relationships",
		"custom_attribute_definitions", "custom_attribute_values",
	} {
		var n int
		err := st.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
		require.NoError(t, err, "table %s", table)
		assert.Zero(t, n)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	testutil.SeedProgram(t, st, 1, "PROG-1", "Alpha")
	require.NoError(t, st.Close())

	// Reopening applies the schema again without touching existing rows.
	st, err = store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	var n int
	require.NoError(t, st.DB().QueryRow("SELECT COUNT(*) FROM programs").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestQueryIDs(t *testing.T) {
	st := testutil.MustOpenStore(t)
	testutil.SeedProgram(t, st, 1, "PROG-1", "Alpha")
	testutil.SeedProgram(t, st, 2, "PROG-2", "Beta")
	testutil.SeedProgram(t, st, 3, "PROG-3", "Alpha")

	registry := schema.Default()
	program, _ := registry.Resolve("Program")
	ctx := context.Background()

	// Filtered.
	ids, err := st.QueryIDs(ctx, program,
		&querysql.Fragment{SQL: "t.title = ?", Args: []any{"Alpha"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	// Unfiltered defaults to id order.
	ids, err = st.QueryIDs(ctx, program, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	// No match returns an empty slice, not nil.
	ids, err = st.QueryIDs(ctx, program,
		&querysql.Fragment{SQL: "t.title = ?", Args: []any{"Nope"}}, nil)
	require.NoError(t, err)
	require.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestQueryIDsWithOrder(t *testing.T) {
	st := testutil.MustOpenStore(t)
	testutil.SeedProgram(t, st, 1, "PROG-1", "Charlie")
	testutil.SeedProgram(t, st, 2, "PROG-2", "Alpha")
	testutil.SeedProgram(t, st, 3, "PROG-3", "Bravo")

	registry := schema.Default()
	program, _ := registry.Resolve("Program")

	ids, err := st.QueryIDs(context.Background(), program, nil, &querysql.OrderSpec{
		Terms: []string{"t.title ASC"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1}, ids)
}

func TestQueryIDsWithJoin(t *testing.T) {
	st := testutil.MustOpenStore(t)
	testutil.SeedPerson(t, st, 1, "Zoe", "zoe@example.com")
	testutil.SeedPerson(t, st, 2, "Ada", "ada@example.com")
	testutil.MustExec(t, st,
		"INSERT INTO programs (id, slug, title, contact_id) VALUES (1, 'PROG-1', 'Alpha', 1)")
	testutil.MustExec(t, st,
		"INSERT INTO programs (id, slug, title, contact_id) VALUES (2, 'PROG-2', 'Beta', 2)")

	registry := schema.Default()
	program, _ := registry.Resolve("Program")

	ids, err := st.QueryIDs(context.Background(), program, nil, &querysql.OrderSpec{
		Joins: []string{"LEFT JOIN people AS o1 ON o1.id = t.contact_id"},
		Terms: []string{"o1.name ASC"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids)
}

func TestLookupSlugs(t *testing.T) {
	st := testutil.MustOpenStore(t)
	testutil.SeedProgram(t, st, 5, "PROG-5", "Alpha")
	testutil.SeedProgram(t, st, 6, "PROG-6", "Beta")

	registry := schema.Default()
	program, _ := registry.Resolve("Program")
	ctx := context.Background()

	ids, err := st.LookupSlugs(ctx, program, []string{"PROG-6", "PROG-5", "PROG-404"})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, ids)

	// Types without a slug column resolve nothing.
	person, _ := registry.Resolve("Person")
	ids, err = st.LookupSlugs(ctx, person, []string{"anything"})
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestIDsRelatedTo(t *testing.T) {
	st := testutil.MustOpenStore(t)
	testutil.SeedRelationship(t, st, "Program", 1, "Control", 10)
	testutil.SeedRelationship(t, st, "Control", 11, "Program", 1)
	testutil.SeedRelationship(t, st, "Program", 2, "Control", 12)

	ctx := context.Background()

	// Both edge directions count.
	ids, err := st.IDsRelatedTo(ctx, "Control", "Program", []int64{1})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, ids)

	ids, err = st.IDsRelatedTo(ctx, "Control", "Program", []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, ids)

	// Empty target set resolves to an empty result without touching the db.
	ids, err = st.IDsRelatedTo(ctx, "Control", "Program", nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCustomAttributeDefinitions(t *testing.T) {
	st := testutil.MustOpenStore(t)
	testutil.MustExec(t, st,
		"INSERT INTO custom_attribute_definitions (id, definition_type, title) VALUES (1, 'Program', 'Risk Rating')")
	testutil.MustExec(t, st,
		"INSERT INTO custom_attribute_definitions (id, definition_type, object_id, title) VALUES (2, 'Program', 7, 'Scoped')")
	testutil.MustExec(t, st,
		"INSERT INTO custom_attribute_definitions (id, definition_type, title, multi_valued) VALUES (3, 'Control', 'Checklist', 1)")

	defs, err := st.CustomAttributeDefinitions(context.Background(), "Program")
	require.NoError(t, err)
	require.Len(t, defs, 2, "object-level definitions are returned too; eligibility is decided later")

	assert.Equal(t, int64(1), defs[0].ID)
	assert.Equal(t, "Risk Rating", defs[0].Title)
	assert.Nil(t, defs[0].ObjectID)
	assert.True(t, defs[0].Eligible())

	require.NotNil(t, defs[1].ObjectID)
	assert.Equal(t, int64(7), *defs[1].ObjectID)
	assert.False(t, defs[1].Eligible())
}
