// Package schema is the registry of queryable object types.
//
// A Class describes one persisted object type: its table, scalar
// attributes, to-one relationships, sort projection and similarity
// contract. The Registry maps object type names to classes and is
// read-only after initialization; one process-wide registry serves all
// requests.
//
// Classes come from two sources: the built-in set in builtin.go and,
// optionally, CUE definition files loaded through LoadDir.
package schema

import (
	"fmt"
	"sort"
)

// Class describes a queryable object type.
type Class struct {
	// Name is the object type name used on the wire, e.g. "Program".
	Name string

	// Table is the backing table. Every table has an integer primary key
	// column named id.
	Table string

	// SlugColumn is the column holding the human-readable unique key, or
	// "" when the type has none.
	SlugColumn string

	// Attributes are the scalar columns exposed for filtering and sorting.
	Attributes []Attribute

	// Relationships are the to-one references exposed for filtering and
	// sorting, resolved through a foreign key column.
	Relationships []Relationship

	// Projection declares how other types sort by a relationship to this
	// class. Nil means such ordering is not implemented.
	Projection SortProjection

	// Similarity is the class's similarity contract, or nil when the
	// class defines no relationship-similarity weights.
	Similarity *SimilaritySpec
}

// Attribute is a scalar column of a class.
type Attribute struct {
	// Name is the canonical attribute name, also the column name.
	Name string

	// Display is the human-facing name used in queries, e.g. "Effective
	// Date". Empty means the attribute is addressable by Name only.
	Display string
}

// Relationship is a to-one reference to another class.
type Relationship struct {
	// Name is the canonical attribute name, e.g. "contact".
	Name string

	// Column is the foreign key column on this class's table.
	Column string

	// Target is the referenced class name.
	Target string

	// Display is the human-facing name, empty for Name-only addressing.
	Display string
}

// SortProjection declares how a class is represented when another type
// orders by a relationship pointing at it.
//
// This is a sealed interface - only types in this package implement it.
type SortProjection interface {
	sortProjection() // Marker method - seals interface to this package
}

// TitleProjection sorts related rows by a title column.
type TitleProjection struct {
	Column string
}

func (TitleProjection) sortProjection() {}

// NameEmailProjection sorts related rows by a display name column,
// falling back to an email column when the name is empty or absent.
type NameEmailProjection struct {
	NameColumn  string
	EmailColumn string
}

func (NameEmailProjection) sortProjection() {}

// SimilaritySpec is a class's similarity contract: candidates are weighted
// by the number of related objects they share with the seed.
type SimilaritySpec struct {
	// Threshold is the minimum shared-neighbor count for a candidate to
	// qualify. Zero means any overlap qualifies.
	Threshold int
}

// Registry maps object type names to classes. Read-only after construction.
type Registry struct {
	classes map[string]*Class
}

// NewRegistry builds a registry from the given classes.
// Duplicate class names are a programming error.
func NewRegistry(classes ...*Class) (*Registry, error) {
	m := make(map[string]*Class, len(classes))
	for _, c := range classes {
		if c.Name == "" {
			return nil, fmt.Errorf("class with empty name (table %q)", c.Table)
		}
		if _, dup := m[c.Name]; dup {
			return nil, fmt.Errorf("duplicate class %q", c.Name)
		}
		m[c.Name] = c
	}
	return &Registry{classes: m}, nil
}

// Resolve returns the class for an object type name.
func (r *Registry) Resolve(name string) (*Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

// Classes returns all registered classes sorted by name.
func (r *Registry) Classes() []*Class {
	out := make([]*Class, 0, len(r.classes))
	for _, c := range r.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Relationship returns the class's relationship with the given canonical
// name, if any.
func (c *Class) Relationship(name string) (Relationship, bool) {
	for _, rel := range c.Relationships {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relationship{}, false
}
