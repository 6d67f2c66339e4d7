// Package testutil provides shared helpers for seeding test databases.
//
// Tests in the store, engine, and harness packages all need a populated
// in-memory database; the builders here keep that seeding in one place.
package testutil

import (
	"context"
	"testing"

	"github.com/veritas-grc/veritas/internal/store"
)

// MustOpenStore opens a fresh in-memory database with the schema applied.
// The store is closed when the test finishes.
func MustOpenStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return st
}

// MustExec runs an insert or update statement, failing the test on error.
func MustExec(t *testing.T, st *store.Store, query string, args ...any) {
	t.Helper()
	if err := st.Exec(context.Background(), query, args...); err != nil {
		t.Fatalf("exec failed: %v\nquery: %s", err, query)
	}
}

// SeedProgram inserts a program row with the given id, slug and title.
func SeedProgram(t *testing.T, st *store.Store, id int64, slug, title string) {
	t.Helper()
	MustExec(t, st,
		"INSERT INTO programs (id, slug, title) VALUES (?, ?, ?)",
		id, slug, title)
}

// SeedControl inserts a control row with the given id, slug and title.
func SeedControl(t *testing.T, st *store.Store, id int64, slug, title string) {
	t.Helper()
	MustExec(t, st,
		"INSERT INTO controls (id, slug, title) VALUES (?, ?, ?)",
		id, slug, title)
}

// SeedPerson inserts a person row.
func SeedPerson(t *testing.T, st *store.Store, id int64, name, email string) {
	t.Helper()
	MustExec(t, st,
		"INSERT INTO people (id, name, email) VALUES (?, ?, ?)",
		id, name, email)
}

// SeedTask inserts a task row with relative schedule columns.
func SeedTask(t *testing.T, st *store.Store, id int64, slug, title string, relStartMonth, relStartDay int) {
	t.Helper()
	MustExec(t, st,
		"INSERT INTO task_group_tasks (id, slug, title, relative_start_month, relative_start_day) VALUES (?, ?, ?, ?, ?)",
		id, slug, title, relStartMonth, relStartDay)
}

// SeedRelationship links two objects in the undirected relationship graph.
func SeedRelationship(t *testing.T, st *store.Store, sourceType string, sourceID int64, destType string, destID int64) {
	t.Helper()
	MustExec(t, st,
		"INSERT INTO relationships (source_type, source_id, dest_type, dest_id) VALUES (?, ?, ?, ?)",
		sourceType, sourceID, destType, destID)
}

// SeedCustomAttribute inserts a global custom attribute definition and one
// value for the given object.
func SeedCustomAttribute(t *testing.T, st *store.Store, defID int64, objectType, title string, objectID int64, value string) {
	t.Helper()
	MustExec(t, st,
		"INSERT OR IGNORE INTO custom_attribute_definitions (id, definition_type, title) VALUES (?, ?, ?)",
		defID, objectType, title)
	MustExec(t, st,
		"INSERT INTO custom_attribute_values (custom_attribute_id, attributable_type, attributable_id, attribute_value) VALUES (?, ?, ?, ?)",
		defID, objectType, objectID, value)
}
