// Package harness provides a conformance testing framework for the query
// resolver.
//
// Scenarios are YAML files that seed a fresh in-memory database, resolve a
// JSON query batch against it, and assert on the resulting id lists. Golden
// files capture the full per-query output for regression comparison.
//
// Each scenario runs in its own database, so scenarios never interfere with
// one another and can run in any order. A fixed request token keeps log
// correlation fields deterministic across runs.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/veritas-grc/veritas/internal/engine"
	"github.com/veritas-grc/veritas/internal/queryir"
	"github.com/veritas-grc/veritas/internal/schema"
	"github.com/veritas-grc/veritas/internal/store"
)

// DefaultRequestToken is used when a scenario does not fix its own token.
const DefaultRequestToken = "test-request-default"

// Result holds the outcome of running a scenario.
type Result struct {
	// Queries holds one outcome per batch query, in order.
	// Empty when the batch was rejected.
	Queries []QueryOutcome

	// ErrorCode is the rejection code when the batch failed with a bad
	// query error, e.g. "BAD_DATE".
	ErrorCode string

	// ErrorMessage is the rejection message when the batch failed.
	ErrorMessage string

	// Failures lists expectation mismatches. Empty means the scenario
	// passed.
	Failures []string
}

// Passed reports whether all expectations held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// QueryOutcome is the resolved id list for one query.
type QueryOutcome struct {
	Object string  `json:"object_name"`
	IDs    []int64 `json:"ids"`
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh in-memory database
//  2. Seed objects, relationships, and custom attributes
//  3. Decode and resolve the query batch
//  4. Check expectations against the outcome
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	registry := schema.Default()
	ctx := context.Background()

	if err := seed(ctx, st, registry, scenario.Seed); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	token := scenario.RequestToken
	if token == "" {
		token = DefaultRequestToken
	}

	eng := engine.New(registry, st,
		engine.WithGate(buildGate(scenario)),
		engine.WithTokenGenerator(engine.FixedGenerator{Token: token}),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)

	result := &Result{}

	batch, err := queryir.DecodeBatch([]byte(scenario.Batch))
	if err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}

	if err := eng.Resolve(ctx, batch); err != nil {
		var bad *queryir.BadQueryError
		if !errors.As(err, &bad) {
			return nil, fmt.Errorf("failed to resolve batch: %w", err)
		}
		result.ErrorCode = string(bad.Code)
		result.ErrorMessage = bad.Message
		checkErrorExpectation(scenario, result)
		return result, nil
	}

	for _, q := range batch {
		result.Queries = append(result.Queries, QueryOutcome{
			Object: q.ObjectName,
			IDs:    q.IDs,
		})
	}

	checkExpectations(scenario, result)
	return result, nil
}

// buildGate constructs the authorization gate from the scenario's deny lists.
func buildGate(scenario *Scenario) engine.Gate {
	if len(scenario.DenyRead) == 0 && len(scenario.DenyUpdate) == 0 {
		return engine.AllowAll{}
	}
	gate := &engine.StaticGate{}
	for _, ref := range scenario.DenyRead {
		gate = gate.DenyRead(ref.Type, ref.ID)
	}
	for _, ref := range scenario.DenyUpdate {
		gate = gate.DenyUpdate(ref.Type, ref.ID)
	}
	return gate
}

// checkExpectations compares resolved id lists against the expect clauses.
func checkExpectations(scenario *Scenario, result *Result) {
	if scenario.ExpectError != "" {
		result.Failures = append(result.Failures,
			fmt.Sprintf("expected rejection %s, batch resolved", scenario.ExpectError))
		return
	}

	for i, expect := range scenario.Expect {
		if i >= len(result.Queries) {
			result.Failures = append(result.Failures,
				fmt.Sprintf("expect[%d]: batch has only %d queries", i, len(result.Queries)))
			continue
		}
		got := result.Queries[i].IDs
		if !equalIDs(got, expect.IDs) {
			result.Failures = append(result.Failures,
				fmt.Sprintf("expect[%d]: ids %v, want %v", i, got, expect.IDs))
		}
	}
}

// checkErrorExpectation compares a batch rejection against expect_error.
func checkErrorExpectation(scenario *Scenario, result *Result) {
	if scenario.ExpectError == "" {
		result.Failures = append(result.Failures,
			fmt.Sprintf("batch rejected with %s: %s", result.ErrorCode, result.ErrorMessage))
		return
	}
	if result.ErrorCode != scenario.ExpectError {
		result.Failures = append(result.Failures,
			fmt.Sprintf("rejection code %s, want %s", result.ErrorCode, scenario.ExpectError))
	}
}

func equalIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// seed inserts the scenario's initial state.
func seed(ctx context.Context, st *store.Store, registry *schema.Registry, s Seed) error {
	for i, obj := range s.Objects {
		if err := seedObject(ctx, st, registry, obj); err != nil {
			return fmt.Errorf("objects[%d] (%s:%d): %w", i, obj.Type, obj.ID, err)
		}
	}

	for i, rel := range s.Relationships {
		err := st.Exec(ctx,
			"INSERT INTO relationships (source_type, source_id, dest_type, dest_id) VALUES (?, ?, ?, ?)",
			rel.Source.Type, rel.Source.ID, rel.Dest.Type, rel.Dest.ID)
		if err != nil {
			return fmt.Errorf("relationships[%d]: %w", i, err)
		}
	}

	for i, ca := range s.CustomAttributes {
		if err := seedCustomAttribute(ctx, st, ca); err != nil {
			return fmt.Errorf("custom_attributes[%d]: %w", i, err)
		}
	}

	return nil
}

// seedObject inserts one row into the object type's table. Attribute keys
// are column names; they are sorted so the statement text is deterministic.
func seedObject(ctx context.Context, st *store.Store, registry *schema.Registry, obj SeedObject) error {
	class, ok := registry.Resolve(obj.Type)
	if !ok {
		return fmt.Errorf("unknown object type %q", obj.Type)
	}

	columns := []string{"id"}
	args := []any{obj.ID}

	keys := make([]string, 0, len(obj.Attrs))
	for k := range obj.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		columns = append(columns, k)
		args = append(args, obj.Attrs[k])
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		class.Table, strings.Join(columns, ", "), placeholders)

	return st.Exec(ctx, query, args...)
}

func seedCustomAttribute(ctx context.Context, st *store.Store, ca SeedCustomAttribute) error {
	err := st.Exec(ctx,
		"INSERT INTO custom_attribute_definitions (id, definition_type, object_id, title, multi_valued) VALUES (?, ?, ?, ?, ?)",
		ca.ID, ca.Type, ca.ObjectID, ca.Title, boolToInt(ca.MultiValued))
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(ca.Values))
	for id := range ca.Values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		err := st.Exec(ctx,
			"INSERT INTO custom_attribute_values (custom_attribute_id, attributable_type, attributable_id, attribute_value) VALUES (?, ?, ?, ?)",
			ca.ID, ca.Type, id, ca.Values[id])
		if err != nil {
			return err
		}
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
