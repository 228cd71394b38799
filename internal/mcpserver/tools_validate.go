package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/validator"
)

type validateInput struct {
	Schema          schemaInput `json:"schema"                     jsonschema:"The schema document"`
	Pointer         string      `json:"pointer,omitempty"          jsonschema:"JSON pointer of the subschema to validate against (default: document root)"`
	Instance        any         `json:"instance,omitempty"         jsonschema:"The JSON value to validate"`
	InstanceContent string      `json:"instance_content,omitempty" jsonschema:"The value to validate as JSON or YAML text (takes precedence over instance)"`
	Formats         *bool       `json:"formats,omitempty"          jsonschema:"Check format keywords such as email and date-time"`
	MaxViolations   *int        `json:"max_violations,omitempty"   jsonschema:"Stop after this many violations (0 means unlimited)"`
}

type violationOutput struct {
	Path       string `json:"path"`
	Pointer    string `json:"pointer"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
	Expected   any    `json:"expected,omitempty"`
	Actual     any    `json:"actual,omitempty"`
}

type validateOutput struct {
	Valid          bool              `json:"valid"`
	ViolationCount int               `json:"violation_count"`
	Truncated      bool              `json:"truncated,omitempty"`
	Violations     []violationOutput `json:"violations,omitempty"`
}

func (ts *toolset) handleValidateInstance(ctx context.Context, _ *mcp.CallToolRequest, input validateInput) (*mcp.CallToolResult, validateOutput, error) {
	s, err := ts.compile(ctx, input.Schema, input.Pointer)
	if err != nil {
		return errResult(err), validateOutput{}, nil
	}

	instance := input.Instance
	if input.InstanceContent != "" {
		if len(input.InstanceContent) > maxInlineSize {
			return errResult(fmt.Errorf("instance_content size %d bytes exceeds maximum %d bytes", len(input.InstanceContent), maxInlineSize)), validateOutput{}, nil
		}
		if instance, err = document.Parse([]byte(input.InstanceContent)); err != nil {
			return errResult(err), validateOutput{}, nil
		}
	}

	// Apply config defaults when input fields are omitted (nil).
	opts := ts.cfg.ValidatorOptions(ts.logger)
	if input.Formats != nil {
		opts = append(opts, validator.WithFormatAssertion(*input.Formats))
	}
	if input.MaxViolations != nil {
		opts = append(opts, validator.WithMaxViolations(*input.MaxViolations))
	}

	result, err := validator.Validate(s, instance, opts...)
	if err != nil {
		return errResult(err), validateOutput{}, nil
	}

	output := validateOutput{
		Valid:          result.Valid,
		ViolationCount: len(result.Violations),
		Truncated:      result.Truncated,
		Violations:     makeSlice[violationOutput](len(result.Violations)),
	}
	for _, v := range result.Violations {
		output.Violations = append(output.Violations, violationOutput{
			Path:       v.Location(),
			Pointer:    v.Pointer(),
			Constraint: v.Constraint,
			Message:    v.Message,
			Expected:   v.Expected,
			Actual:     v.Actual,
		})
	}
	return nil, output, nil
}
