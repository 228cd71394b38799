package mcpserver

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/aptos/internal/config"
)

func ptr[T any](v T) *T { return &v }

func TestValidateTool_Valid(t *testing.T) {
	ts := newTestToolset(t)
	input := validateInput{
		Schema:   schemaInput{Content: petSchema},
		Pointer:  "/definitions/Pet",
		Instance: map[string]any{"id": float64(1), "name": "rex", "tags": []any{"a"}},
	}
	result, output, err := ts.handleValidateInstance(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.True(t, output.Valid)
	assert.Zero(t, output.ViolationCount)
	assert.Empty(t, output.Violations)
}

func TestValidateTool_Violations(t *testing.T) {
	ts := newTestToolset(t)
	input := validateInput{
		Schema:          schemaInput{Content: petSchema},
		Pointer:         "/definitions/Pet",
		InstanceContent: `{"id": 1.5, "name": "a very long name", "parent": {"id": 2}}`,
	}
	_, output, err := ts.handleValidateInstance(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.False(t, output.Valid)
	assert.Equal(t, 3, output.ViolationCount)

	byPointer := make(map[string]violationOutput)
	for _, v := range output.Violations {
		byPointer[v.Pointer] = v
	}
	assert.Equal(t, "type", byPointer["/id"].Constraint)
	assert.Equal(t, "maxLength", byPointer["/name"].Constraint)
	assert.Equal(t, "required", byPointer["/parent/name"].Constraint)
	assert.Equal(t, "$.parent.name", byPointer["/parent/name"].Path)
}

func TestValidateTool_Formats(t *testing.T) {
	input := validateInput{
		Schema:   schemaInput{Content: petSchema},
		Pointer:  "/definitions/Pet",
		Instance: map[string]any{"id": float64(1), "name": "rex", "email": "not-an-email"},
	}

	ts := newTestToolset(t)
	_, output, err := ts.handleValidateInstance(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.True(t, output.Valid, "formats are annotations by default")

	input.Formats = ptr(true)
	_, output, err = ts.handleValidateInstance(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.False(t, output.Valid)
	require.Len(t, output.Violations, 1)
	assert.Equal(t, "format", output.Violations[0].Constraint)

	// The configured default applies when the input omits formats.
	ts = newTestToolset(t, func(c *config.Config) { c.Validate.FormatAssertion = true })
	input.Formats = nil
	_, output, err = ts.handleValidateInstance(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.False(t, output.Valid)
}

func TestValidateTool_MaxViolations(t *testing.T) {
	ts := newTestToolset(t)
	input := validateInput{
		Schema:          schemaInput{Content: `{"type": "array", "items": {"type": "string"}}`},
		InstanceContent: `[1, 2, 3, 4]`,
		MaxViolations:   ptr(2),
	}
	_, output, err := ts.handleValidateInstance(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.Equal(t, 2, output.ViolationCount)
	assert.True(t, output.Truncated)
}

func TestValidateTool_NullInstance(t *testing.T) {
	ts := newTestToolset(t)
	input := validateInput{Schema: schemaInput{Content: `{"type": ["string", "null"]}`}}
	_, output, err := ts.handleValidateInstance(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.True(t, output.Valid)
}

func TestValidateTool_Errors(t *testing.T) {
	ts := newTestToolset(t)
	tests := []struct {
		name  string
		input validateInput
	}{
		{name: "missing schema", input: validateInput{}},
		{name: "bad pointer", input: validateInput{Schema: schemaInput{Content: petSchema}, Pointer: "/definitions/Dog"}},
		{name: "unresolvable ref", input: validateInput{Schema: schemaInput{Content: `{"$ref": "#/definitions/Nope"}`}}},
		{name: "bad instance content", input: validateInput{Schema: schemaInput{Content: petSchema}, InstanceContent: "{"}},
		{name: "negative max violations", input: validateInput{Schema: schemaInput{Content: petSchema}, MaxViolations: ptr(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := ts.handleValidateInstance(context.Background(), &mcp.CallToolRequest{}, tt.input)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.IsError)
		})
	}
}
