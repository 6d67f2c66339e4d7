package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileClass parses a CUE value into a Class.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the class struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`class: Program: { table: "programs", ... }`)
//	cls, err := CompileClass(v.LookupPath(cue.ParsePath("class.Program")))
func CompileClass(v cue.Value) (*Class, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	cls := &Class{}

	// Class name comes from the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		cls.Name = labels[len(labels)-1].String()
	}

	// table (required)
	tableVal := v.LookupPath(cue.ParsePath("table"))
	if !tableVal.Exists() {
		return nil, &CompileError{
			Field:   "table",
			Message: "table is required",
			Pos:     v.Pos(),
		}
	}
	table, err := tableVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	cls.Table = table

	// slug (optional column name)
	if slugVal := v.LookupPath(cue.ParsePath("slug")); slugVal.Exists() {
		slug, err := slugVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		cls.SlugColumn = slug
	}

	cls.Attributes, err = parseAttributes(v)
	if err != nil {
		return nil, err
	}

	cls.Relationships, err = parseRelationships(v)
	if err != nil {
		return nil, err
	}

	cls.Projection, err = parseProjection(v)
	if err != nil {
		return nil, err
	}

	if simVal := v.LookupPath(cue.ParsePath("similarity")); simVal.Exists() {
		spec := &SimilaritySpec{}
		if thVal := simVal.LookupPath(cue.ParsePath("threshold")); thVal.Exists() {
			th, err := thVal.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			spec.Threshold = int(th)
		}
		cls.Similarity = spec
	}

	if len(cls.Attributes) == 0 {
		return nil, &CompileError{
			Field:   "attr",
			Message: "at least one attribute is required",
			Pos:     v.Pos(),
		}
	}

	return cls, nil
}

// parseAttributes parses the attr struct: attr: <name>: {display?: string}.
// Field order in the CUE source is preserved.
func parseAttributes(v cue.Value) ([]Attribute, error) {
	attrVal := v.LookupPath(cue.ParsePath("attr"))
	if !attrVal.Exists() {
		return nil, nil
	}
	iter, err := attrVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var attrs []Attribute
	for iter.Next() {
		attr := Attribute{Name: iter.Label()}
		if dispVal := iter.Value().LookupPath(cue.ParsePath("display")); dispVal.Exists() {
			disp, err := dispVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			attr.Display = disp
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// parseRelationships parses the rel struct:
// rel: <name>: {column: string, target: string, display?: string}.
func parseRelationships(v cue.Value) ([]Relationship, error) {
	relVal := v.LookupPath(cue.ParsePath("rel"))
	if !relVal.Exists() {
		return nil, nil
	}
	iter, err := relVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rels []Relationship
	for iter.Next() {
		rel := Relationship{Name: iter.Label()}
		val := iter.Value()

		column, err := requiredString(val, "column")
		if err != nil {
			return nil, err
		}
		rel.Column = column

		target, err := requiredString(val, "target")
		if err != nil {
			return nil, err
		}
		rel.Target = target

		if dispVal := val.LookupPath(cue.ParsePath("display")); dispVal.Exists() {
			disp, err := dispVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			rel.Display = disp
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// parseProjection parses the optional projection struct. Two shapes are
// accepted: {title: <column>} and {name: <column>, email: <column>}.
func parseProjection(v cue.Value) (SortProjection, error) {
	projVal := v.LookupPath(cue.ParsePath("projection"))
	if !projVal.Exists() {
		return nil, nil
	}

	if titleVal := projVal.LookupPath(cue.ParsePath("title")); titleVal.Exists() {
		title, err := titleVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return TitleProjection{Column: title}, nil
	}

	nameVal := projVal.LookupPath(cue.ParsePath("name"))
	emailVal := projVal.LookupPath(cue.ParsePath("email"))
	if nameVal.Exists() && emailVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		email, err := emailVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return NameEmailProjection{NameColumn: name, EmailColumn: email}, nil
	}

	return nil, &CompileError{
		Field:   "projection",
		Message: "projection must define either title or name and email",
		Pos:     projVal.Pos(),
	}
}

func requiredString(v cue.Value, field string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a class definition compilation error.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
