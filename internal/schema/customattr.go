package schema

// CustomAttributeDef is a custom attribute definition as stored.
//
// Only global definitions become filterable pseudo-fields: object-level
// definitions (ObjectID set) can carry several definition ids under one
// title, which the filters cannot address, and multi-valued definitions
// have no single comparable value.
type CustomAttributeDef struct {
	ID          int64
	ClassName   string
	Title       string
	ObjectID    *int64 // nil for global definitions
	MultiValued bool
}

// Eligible reports whether the definition qualifies as a filterable
// pseudo-field.
func (d CustomAttributeDef) Eligible() bool {
	return d.Title != "" && d.ObjectID == nil && !d.MultiValued
}
