package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectTool(t *testing.T) {
	ts := newTestToolset(t)
	input := inspectInput{Schema: schemaInput{Content: petSchema}, Pointer: "/definitions/Pet"}
	result, output, err := ts.handleInspectSchema(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.Nil(t, result)

	assert.Equal(t, "object", output.RootKind)
	assert.Equal(t, "Pet", output.Name)
	assert.True(t, output.Stats.Cyclic)
	assert.Equal(t, []string{"Pet"}, output.Stats.Definitions)
	assert.Equal(t, 6, output.Stats.Properties)
	assert.Zero(t, output.Stats.References)
	assert.Equal(t, 1, output.Stats.ByKind["object"])
	assert.Equal(t, 1, output.Stats.ByKind["array"])
	assert.Equal(t, 1, output.Stats.ByKind["enum"])
}

func TestInspectTool_Error(t *testing.T) {
	ts := newTestToolset(t)
	result, output, err := ts.handleInspectSchema(context.Background(), &mcp.CallToolRequest{}, inspectInput{
		Schema: schemaInput{Content: "{"},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	// the zero output must still satisfy the tool's output schema
	data, err := json.Marshal(output)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
	assert.NotContains(t, string(data), "by_kind")
}
