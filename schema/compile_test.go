package schema

import (
	"testing"

	"github.com/erraggy/aptos/schemaerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petDoc = `{
	"definitions": {
		"Pet": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string"},
				"category": {"$ref": "#/definitions/Category"}
			}
		},
		"Category": {"type": "string", "enum": ["dog", "cat"]}
	}
}`

func TestCompileWithPointer(t *testing.T) {
	s, err := compileString(t, petDoc, WithPointer("/definitions/Pet"))
	require.NoError(t, err)
	assert.Equal(t, Location{Pointer: "/definitions/Pet"}, s.Graph.Location(s.Root))
	assert.Equal(t, "Pet", s.Graph.Name(s.Root))

	cat, ok := s.Node().(*Object).Property("category")
	require.True(t, ok)
	assert.Equal(t, KindString, s.Graph.Kind(cat))
	assert.Equal(t, "Category", s.Graph.Name(cat))

	s2, err := compileString(t, petDoc, WithPointer("#/definitions/Pet"))
	require.NoError(t, err)
	assert.Equal(t, s.Graph.Location(s.Root), s2.Graph.Location(s2.Root))
}

func TestCompilePointerErrors(t *testing.T) {
	for _, p := range []string{"definitions/Pet", "/definitions/Nope"} {
		_, err := compileString(t, petDoc, WithPointer(p))
		assert.ErrorIs(t, err, schemaerrors.ErrConfig, p)
	}
}

func TestCompileAllOfThroughReferences(t *testing.T) {
	s, err := compileString(t, `{
		"type": "object",
		"allOf": [
			{"$ref": "#/definitions/Base"},
			{"properties": {"name": {"type": "string"}}, "required": ["name"]}
		],
		"definitions": {
			"Base": {"type": "object", "properties": {"id": {"type": "integer"}}, "required": ["id"]}
		}
	}`)
	require.NoError(t, err)

	o := s.Node().(*Object)
	assert.True(t, o.MergedAllOf)
	require.Len(t, o.Properties, 2)
	assert.Equal(t, "id", o.Properties[0].Name)
	assert.Equal(t, "name", o.Properties[1].Name)
	assert.Equal(t, []string{"id", "name"}, o.Required)

	base, _ := s.Graph.Lookup(Location{Pointer: "/definitions/Base"})
	assert.Equal(t, base, o.AllOf[0])
}

func TestCompileWithoutResolve(t *testing.T) {
	s, err := compileString(t, petDoc, WithPointer("/definitions/Pet"), WithoutResolve())
	require.NoError(t, err)
	cat, _ := s.Node().(*Object).Property("category")
	ref, ok := s.Graph.Node(cat).(*Reference)
	require.True(t, ok)
	assert.Equal(t, "#/definitions/Category", ref.Ref)
}

func TestCompileMetaSchemaCheck(t *testing.T) {
	src := `{"type": "object", "required": []}`

	_, err := compileString(t, src)
	require.NoError(t, err)

	_, err = compileString(t, src, WithMetaSchemaCheck(true))
	assert.ErrorIs(t, err, schemaerrors.ErrParse)
}

func TestCompileInvalidOptions(t *testing.T) {
	_, err := compileString(t, petDoc, WithRegistry(nil))
	assert.Error(t, err)
}

func TestCompileRegistryIsPerCall(t *testing.T) {
	reg, err := NewRegistry(WithTypeAlias("file", KindString))
	require.NoError(t, err)

	s, err := compileString(t, `{"type": "file"}`, WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, KindString, s.Node().Kind())
	assert.Empty(t, s.Issues)

	s, err = compileString(t, `{"type": "file"}`)
	require.NoError(t, err)
	assert.Equal(t, KindObject, s.Node().Kind())
	assert.Len(t, s.Issues, 1)
}
