package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/aptos/schema"
)

type inspectInput struct {
	Schema  schemaInput `json:"schema"            jsonschema:"The schema document"`
	Pointer string      `json:"pointer,omitempty" jsonschema:"JSON pointer of the subschema to inspect (default: document root)"`
}

type inspectOutput struct {
	RootKind   string       `json:"root_kind"`
	Name       string       `json:"name,omitempty"`
	Stats      schema.Stats `json:"stats"`
	IssueCount int          `json:"issue_count"`
}

func (ts *toolset) handleInspectSchema(ctx context.Context, _ *mcp.CallToolRequest, input inspectInput) (*mcp.CallToolResult, inspectOutput, error) {
	s, err := ts.compile(ctx, input.Schema, input.Pointer)
	if err != nil {
		return errResult(err), inspectOutput{}, nil
	}
	return nil, inspectOutput{
		RootKind:   s.Graph.Kind(s.Root).String(),
		Name:       s.Graph.Name(s.Root),
		Stats:      schema.GetStats(s.Graph, s.Root),
		IssueCount: len(s.Issues),
	}, nil
}
