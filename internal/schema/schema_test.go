package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(
		&Class{Name: "A", Table: "a", Attributes: []Attribute{{Name: "title"}}},
		&Class{Name: "B", Table: "b", Attributes: []Attribute{{Name: "title"}}},
	)
	require.NoError(t, err)

	c, ok := r.Resolve("A")
	require.True(t, ok)
	assert.Equal(t, "a", c.Table)

	_, ok = r.Resolve("Missing")
	assert.False(t, ok)
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		&Class{Name: "A", Table: "a"},
		&Class{Name: "A", Table: "a2"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate class")

	_, err = NewRegistry(&Class{Table: "orphan"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty name")
}

func TestClassesSorted(t *testing.T) {
	r, err := NewRegistry(
		&Class{Name: "Zeta", Table: "z"},
		&Class{Name: "Alpha", Table: "a"},
	)
	require.NoError(t, err)

	classes := r.Classes()
	require.Len(t, classes, 2)
	assert.Equal(t, "Alpha", classes[0].Name)
	assert.Equal(t, "Zeta", classes[1].Name)
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	for _, name := range []string{"Program", "Audit", "Control", "Assessment", "Person", "TaskGroupTask"} {
		c, ok := r.Resolve(name)
		require.True(t, ok, "missing built-in class %s", name)
		assert.NotEmpty(t, c.Table)
		assert.NotEmpty(t, c.Attributes)
	}

	control, _ := r.Resolve("Control")
	require.NotNil(t, control.Similarity)
	assert.Equal(t, 1, control.Similarity.Threshold)

	person, _ := r.Resolve("Person")
	assert.Equal(t, "", person.SlugColumn, "people have no slug")
	assert.IsType(t, NameEmailProjection{}, person.Projection)

	program, _ := r.Resolve("Program")
	assert.IsType(t, TitleProjection{}, program.Projection)
	assert.Nil(t, program.Similarity)
}
