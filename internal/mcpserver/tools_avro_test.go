package mcpserver

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/internal/config"
)

// field returns key from an emitted Avro mapping.
func field(t *testing.T, v any, key string) any {
	t.Helper()
	m, ok := v.(*document.Map)
	require.True(t, ok, "expected a mapping, got %T", v)
	out, _ := m.Get(key)
	return out
}

func TestEmitAvroTool(t *testing.T) {
	ts := newTestToolset(t)
	input := emitAvroInput{
		Schema:    schemaInput{Content: petSchema},
		Pointer:   "/definitions/Pet",
		Namespace: "com.example.pets",
	}
	result, output, err := ts.handleEmitAvro(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.Nil(t, result)

	assert.Equal(t, "record", field(t, output.Schema, "type"))
	assert.Equal(t, "Pet", field(t, output.Schema, "name"))
	assert.Equal(t, "com.example.pets", field(t, output.Schema, "namespace"))

	fields, ok := field(t, output.Schema, "fields").([]any)
	require.True(t, ok)
	names := make([]any, 0, len(fields))
	for _, f := range fields {
		names = append(names, field(t, f, "name"))
	}
	assert.Equal(t, []any{"id", "name", "email", "tags", "status", "parent"}, names)
	assert.Equal(t, "com.example.pets.Pet", field(t, fields[5], "type"))
}

func TestEmitAvroTool_NullableOptional(t *testing.T) {
	input := emitAvroInput{
		Schema:  schemaInput{Content: `{"type": "object", "title": "Tag", "properties": {"label": {"type": "string"}}}`},
		Pointer: "",
	}

	ts := newTestToolset(t, func(c *config.Config) { c.Avro.OptionalNullable = true })
	_, output, err := ts.handleEmitAvro(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	fields := field(t, output.Schema, "fields").([]any)
	assert.Equal(t, []any{"null", "string"}, field(t, fields[0], "type"))

	input.NullableOptional = ptr(false)
	_, output, err = ts.handleEmitAvro(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	fields = field(t, output.Schema, "fields").([]any)
	assert.Equal(t, "string", field(t, fields[0], "type"))
}

func TestEmitAvroTool_Issues(t *testing.T) {
	ts := newTestToolset(t)
	input := emitAvroInput{
		Schema:   schemaInput{Content: `{"type": "object", "properties": {"my-field": {"type": "string"}}}`},
		RootName: "Thing",
	}
	_, output, err := ts.handleEmitAvro(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.Equal(t, "Thing", field(t, output.Schema, "name"))
	require.NotEmpty(t, output.Issues)
	assert.Equal(t, "warning", output.Issues[0].Severity)
}

func TestEmitAvroTool_Errors(t *testing.T) {
	ts := newTestToolset(t)
	tests := []struct {
		name  string
		input emitAvroInput
	}{
		{name: "missing schema", input: emitAvroInput{}},
		{name: "bad namespace", input: emitAvroInput{Schema: schemaInput{Content: petSchema}, Pointer: "/definitions/Pet", Namespace: "com.1bad"}},
		{name: "bad root name", input: emitAvroInput{Schema: schemaInput{Content: `{"type": "object"}`}, RootName: "not valid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := ts.handleEmitAvro(context.Background(), &mcp.CallToolRequest{}, tt.input)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.IsError)
		})
	}
}
