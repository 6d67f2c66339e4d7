package harness

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios seed a fresh database, resolve a query batch against it, and
// assert on the resulting id lists (or the rejection error).
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed establishes initial database state.
	Seed Seed `yaml:"seed,omitempty"`

	// Batch is the query batch to resolve, as raw JSON.
	// Raw JSON keeps scenarios byte-identical to real client payloads.
	Batch string `yaml:"batch"`

	// Expect lists the expected outcome per query, in batch order.
	// Omit to rely on the golden file alone.
	Expect []ExpectClause `yaml:"expect,omitempty"`

	// ExpectError names the expected rejection code when the whole batch
	// should fail. Mutually exclusive with Expect.
	ExpectError string `yaml:"expect_error,omitempty"`

	// DenyRead and DenyUpdate withhold permissions from specific objects.
	// Entries are "Type:id" pairs, e.g. "Program:3".
	DenyRead   []ObjectRef `yaml:"deny_read,omitempty"`
	DenyUpdate []ObjectRef `yaml:"deny_update,omitempty"`

	// RequestToken is an optional fixed request token for deterministic
	// golden file comparison. Defaults to "test-request-default".
	RequestToken string `yaml:"request_token,omitempty"`
}

// Seed describes initial database contents.
type Seed struct {
	// Objects lists rows to insert, grouped by object type.
	Objects []SeedObject `yaml:"objects,omitempty"`

	// Relationships lists undirected links between seeded objects.
	Relationships []SeedRelationship `yaml:"relationships,omitempty"`

	// CustomAttributes lists custom attribute definitions and values.
	CustomAttributes []SeedCustomAttribute `yaml:"custom_attributes,omitempty"`
}

// SeedObject is a single row to insert.
type SeedObject struct {
	// Type is the object type name (e.g. "Program").
	Type string `yaml:"type"`

	// ID is the row id. Required so relationships and expectations can
	// reference rows deterministically.
	ID int64 `yaml:"id"`

	// Attrs maps column names to values.
	Attrs map[string]interface{} `yaml:"attrs,omitempty"`
}

// SeedRelationship links two seeded objects.
type SeedRelationship struct {
	Source ObjectRef `yaml:"source"`
	Dest   ObjectRef `yaml:"dest"`
}

// ObjectRef names an object by type and id, serialized as "Type:id".
type ObjectRef struct {
	Type string
	ID   int64
}

// UnmarshalYAML parses the "Type:id" form.
func (r *ObjectRef) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	typ, idStr, ok := strings.Cut(s, ":")
	if !ok || typ == "" {
		return fmt.Errorf("invalid object reference %q (want \"Type:id\")", s)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid object reference %q: %w", s, err)
	}
	r.Type = typ
	r.ID = id
	return nil
}

// MarshalYAML renders the "Type:id" form.
func (r ObjectRef) MarshalYAML() (interface{}, error) {
	return fmt.Sprintf("%s:%d", r.Type, r.ID), nil
}

// SeedCustomAttribute defines one custom attribute and its values.
type SeedCustomAttribute struct {
	// ID is the definition id.
	ID int64 `yaml:"id"`

	// Type is the object type the definition applies to.
	Type string `yaml:"type"`

	// Title is the attribute title clients filter by.
	Title string `yaml:"title"`

	// ObjectID scopes the definition to one object. Leave unset for a
	// global definition; only global definitions are filterable.
	ObjectID *int64 `yaml:"object_id,omitempty"`

	// MultiValued marks checkbox-style definitions, which are excluded
	// from filtering.
	MultiValued bool `yaml:"multi_valued,omitempty"`

	// Values maps object id to the stored attribute value.
	Values map[int64]string `yaml:"values,omitempty"`
}

// ExpectClause specifies the expected outcome of one query.
type ExpectClause struct {
	// IDs is the exact expected id list, in order.
	IDs []int64 `yaml:"ids"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Batch == "" {
		return fmt.Errorf("batch is required")
	}

	if len(s.Expect) > 0 && s.ExpectError != "" {
		return fmt.Errorf("expect and expect_error are mutually exclusive")
	}

	for i, obj := range s.Seed.Objects {
		if obj.Type == "" {
			return fmt.Errorf("seed.objects[%d]: type is required", i)
		}
		if obj.ID == 0 {
			return fmt.Errorf("seed.objects[%d]: id is required", i)
		}
	}

	for i, rel := range s.Seed.Relationships {
		if rel.Source.Type == "" || rel.Dest.Type == "" {
			return fmt.Errorf("seed.relationships[%d]: source and dest are required", i)
		}
	}

	for i, ca := range s.Seed.CustomAttributes {
		if ca.ID == 0 {
			return fmt.Errorf("seed.custom_attributes[%d]: id is required", i)
		}
		if ca.Type == "" {
			return fmt.Errorf("seed.custom_attributes[%d]: type is required", i)
		}
		if ca.Title == "" {
			return fmt.Errorf("seed.custom_attributes[%d]: title is required", i)
		}
	}

	return nil
}
