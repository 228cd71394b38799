package commands

import (
	"context"
	"testing"

	j "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleInspect(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "pet.schema.json", petSchema)

	t.Run("text", func(t *testing.T) {
		env := newTestEnv(t, "")
		require.NoError(t, HandleInspect(context.Background(), env.Env, []string{schemaPath}))
		out := env.stdout.String()
		assert.Contains(t, out, "Root Kind: object")
		assert.Contains(t, out, "Name: Pet")
		assert.Contains(t, out, "Properties: 7")
		assert.Contains(t, out, "Cyclic: false")
		assert.Contains(t, out, "Definitions (2)")
	})

	t.Run("json", func(t *testing.T) {
		env := newTestEnv(t, "")
		require.NoError(t, HandleInspect(context.Background(), env.Env, []string{"--format", "json", schemaPath}))
		var report inspectReport
		require.NoError(t, j.Unmarshal(env.stdout.Bytes(), &report))
		assert.Equal(t, "object", report.RootKind)
		assert.Equal(t, "Pet", report.Name)
		assert.Equal(t, 0, report.Stats.References)
		assert.Equal(t, 2, report.Stats.ByKind["object"])
		assert.ElementsMatch(t, []string{"Pet", "Category"}, report.Stats.Definitions)
	})

	t.Run("pointer", func(t *testing.T) {
		env := newTestEnv(t, "")
		require.NoError(t, HandleInspect(context.Background(), env.Env, []string{"--pointer", "/definitions/Category", "--format", "yaml", schemaPath}))
		assert.Contains(t, env.stdout.String(), "root_kind: object")
		assert.Contains(t, env.stdout.String(), "pointer: /definitions/Category")
	})

	t.Run("recursive schema", func(t *testing.T) {
		tree := writeFile(t, dir, "tree.json", `{
  "definitions": {
    "Node": {
      "type": "object",
      "properties": {"children": {"type": "array", "items": {"$ref": "#/definitions/Node"}}}
    }
  },
  "$ref": "#/definitions/Node"
}`)
		env := newTestEnv(t, "")
		require.NoError(t, HandleInspect(context.Background(), env.Env, []string{tree}))
		assert.Contains(t, env.stdout.String(), "Cyclic: true")
	})

	t.Run("fallback issues", func(t *testing.T) {
		odd := writeFile(t, dir, "odd.json", `{"type": "file"}`)
		env := newTestEnv(t, "")
		require.NoError(t, HandleInspect(context.Background(), env.Env, []string{odd}))
		assert.Contains(t, env.stdout.String(), "Issues (1)")
	})
}

func TestHandleInspect_Errors(t *testing.T) {
	env := newTestEnv(t, "")
	assert.Error(t, HandleInspect(context.Background(), env.Env, nil))
	assert.Error(t, HandleInspect(context.Background(), env.Env, []string{"--format", "xml", "s.json"}))
	assert.NoError(t, HandleInspect(context.Background(), env.Env, []string{"--help"}))
}
