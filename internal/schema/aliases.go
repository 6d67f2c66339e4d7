package schema

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FoldKey normalizes a field or display name for alias map lookup.
// Display names may carry arbitrary Unicode (custom attribute titles are
// user input), so keys are NFC normalized before lower-casing.
func FoldKey(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// AliasTarget is what an alias map key resolves to.
type AliasTarget struct {
	// Attr is the canonical attribute name. For plain attributes this is
	// also the column name; for custom attribute pseudo-fields it is the
	// folded definition title.
	Attr string

	// Relationship is set when the key names a to-one relationship.
	Relationship *Relationship

	// CustomAttrID is the custom attribute definition id for
	// pseudo-fields, zero otherwise.
	CustomAttrID int64
}

// AliasMap resolves folded display names and canonical attribute names to
// their targets for one class. Built once per query batch.
type AliasMap map[string]AliasTarget

// Lookup resolves a client-supplied field name.
func (m AliasMap) Lookup(key string) (AliasTarget, bool) {
	t, ok := m[FoldKey(key)]
	return t, ok
}

// BuildAliasMap builds the alias map for a class, including pseudo-fields
// for the given custom attribute definitions. Ineligible definitions are
// skipped (see CustomAttributeDef.Eligible).
func BuildAliasMap(c *Class, defs []CustomAttributeDef) AliasMap {
	m := make(AliasMap)
	for i := range c.Attributes {
		attr := c.Attributes[i]
		target := AliasTarget{Attr: attr.Name}
		m[FoldKey(attr.Name)] = target
		if attr.Display != "" {
			m[FoldKey(attr.Display)] = target
		}
	}
	for i := range c.Relationships {
		rel := &c.Relationships[i]
		target := AliasTarget{Attr: rel.Name, Relationship: rel}
		m[FoldKey(rel.Name)] = target
		if rel.Display != "" {
			m[FoldKey(rel.Display)] = target
		}
	}
	for _, def := range defs {
		if !def.Eligible() {
			continue
		}
		name := FoldKey(def.Title)
		m[name] = AliasTarget{Attr: name, CustomAttrID: def.ID}
	}
	return m
}
