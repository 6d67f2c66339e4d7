package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldKey(t *testing.T) {
	assert.Equal(t, "effective date", FoldKey("Effective Date"))
	assert.Equal(t, FoldKey("café"), FoldKey("café"), "NFC folds combining forms together")
}

func TestBuildAliasMap(t *testing.T) {
	r := Default()
	program, _ := r.Resolve("Program")
	aliases := BuildAliasMap(program, nil)

	// Canonical names resolve.
	target, ok := aliases.Lookup("title")
	require.True(t, ok)
	assert.Equal(t, "title", target.Attr)
	assert.Nil(t, target.Relationship)

	// Display names resolve to the same target, case-insensitively.
	target, ok = aliases.Lookup("Effective Date")
	require.True(t, ok)
	assert.Equal(t, "start_date", target.Attr)

	target, ok = aliases.Lookup("CODE")
	require.True(t, ok)
	assert.Equal(t, "slug", target.Attr)

	// Relationships resolve by name and display.
	target, ok = aliases.Lookup("Contact")
	require.True(t, ok)
	require.NotNil(t, target.Relationship)
	assert.Equal(t, "contact_id", target.Relationship.Column)
	assert.Equal(t, "Person", target.Relationship.Target)

	_, ok = aliases.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestBuildAliasMapCustomAttributes(t *testing.T) {
	r := Default()
	program, _ := r.Resolve("Program")

	objectID := int64(5)
	aliases := BuildAliasMap(program, []CustomAttributeDef{
		{ID: 1, ClassName: "Program", Title: "Risk Rating"},
		{ID: 2, ClassName: "Program", Title: "Scoped", ObjectID: &objectID},
		{ID: 3, ClassName: "Program", Title: "Checklist", MultiValued: true},
		{ID: 4, ClassName: "Program", Title: ""},
	})

	target, ok := aliases.Lookup("Risk Rating")
	require.True(t, ok)
	assert.Equal(t, int64(1), target.CustomAttrID)
	assert.Equal(t, "risk rating", target.Attr)

	// Object-scoped, multi-valued and untitled definitions are not
	// addressable.
	_, ok = aliases.Lookup("Scoped")
	assert.False(t, ok)
	_, ok = aliases.Lookup("Checklist")
	assert.False(t, ok)
}

func TestCustomAttributeDefEligible(t *testing.T) {
	objectID := int64(1)
	assert.True(t, CustomAttributeDef{ID: 1, Title: "T"}.Eligible())
	assert.False(t, CustomAttributeDef{ID: 1, Title: ""}.Eligible())
	assert.False(t, CustomAttributeDef{ID: 1, Title: "T", ObjectID: &objectID}.Eligible())
	assert.False(t, CustomAttributeDef{ID: 1, Title: "T", MultiValued: true}.Eligible())
}
