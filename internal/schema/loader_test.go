package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	source := `
class: Policy: {
	table: "policies"
	slug:  "slug"
	attr: {
		title: display:  "Title"
		status: display: "Status"
	}
	projection: title: "title"
}

class: Person: {
	table: "people"
	attr: {
		name: display:  "Name"
		email: display: "Email"
	}
	projection: {
		name:  "name"
		email: "email"
	}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classes.cue"), []byte(source), 0o644))

	registry, err := LoadDir(dir)
	require.NoError(t, err)

	policy, ok := registry.Resolve("Policy")
	require.True(t, ok)
	assert.Equal(t, "policies", policy.Table)
	assert.Equal(t, "slug", policy.SlugColumn)

	person, ok := registry.Resolve("Person")
	require.True(t, ok)
	assert.Equal(t, NameEmailProjection{NameColumn: "name", EmailColumn: "email"}, person.Projection)
}

func TestLoadDirErrors(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	empty := t.TempDir()
	_, err = LoadDir(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")

	file := filepath.Join(t.TempDir(), "file.cue")
	require.NoError(t, os.WriteFile(file, []byte("class: {}"), 0o644))
	_, err = LoadDir(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestLoadDirBadClass(t *testing.T) {
	dir := t.TempDir()
	source := `
class: Broken: {
	slug: "slug"
	attr: title: {}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.cue"), []byte(source), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "class Broken")
	assert.Contains(t, err.Error(), "table is required")
}
