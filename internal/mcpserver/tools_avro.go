package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/aptos/avro"
)

type emitAvroInput struct {
	Schema           schemaInput `json:"schema"                      jsonschema:"The schema document"`
	Pointer          string      `json:"pointer,omitempty"           jsonschema:"JSON pointer of the subschema to convert (default: document root)"`
	Namespace        string      `json:"namespace,omitempty"         jsonschema:"Avro namespace for named types, e.g. com.example.pets"`
	RootName         string      `json:"root_name,omitempty"         jsonschema:"Record name for an untitled root schema"`
	NullableOptional *bool       `json:"nullable_optional,omitempty" jsonschema:"Make optional fields nullable with a null default"`
}

type issueOutput struct {
	Path     string `json:"path"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type emitAvroOutput struct {
	Schema any           `json:"schema"`
	Issues []issueOutput `json:"issues,omitempty"`
}

func (ts *toolset) handleEmitAvro(ctx context.Context, _ *mcp.CallToolRequest, input emitAvroInput) (*mcp.CallToolResult, emitAvroOutput, error) {
	s, err := ts.compile(ctx, input.Schema, input.Pointer)
	if err != nil {
		return errResult(err), emitAvroOutput{}, nil
	}

	opts := ts.cfg.AvroOptions(ts.logger)
	if input.Namespace != "" {
		opts = append(opts, avro.WithNamespace(input.Namespace))
	}
	if input.RootName != "" {
		opts = append(opts, avro.WithRootName(input.RootName))
	}
	if input.NullableOptional != nil {
		opts = append(opts, avro.WithOptionalNullable(*input.NullableOptional))
	}

	result, err := avro.Emit(s.Graph, s.Root, opts...)
	if err != nil {
		return errResult(err), emitAvroOutput{}, nil
	}

	output := emitAvroOutput{
		Schema: result.Schema,
		Issues: makeSlice[issueOutput](len(result.Issues)),
	}
	for _, is := range result.Issues {
		output.Issues = append(output.Issues, issueOutput{
			Path:     is.Location(),
			Severity: is.Severity.String(),
			Message:  is.Message,
		})
	}
	return nil, output, nil
}
