// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes aptos schema validation, Avro emission and inspection as
// MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/aptos"
	"github.com/erraggy/aptos/httpfetch"
	"github.com/erraggy/aptos/internal/config"
	"github.com/erraggy/aptos/schema"
)

const serverInstructions = `aptos MCP server: validates JSON instances against JSON Schema / OpenAPI schemas, emits Avro schemas, and summarizes schema graphs.

Schema input: every tool takes a "schema" object with exactly one of file, url, or content, plus an optional JSON pointer selecting a subschema (e.g. /definitions/Pet or /components/schemas/Pet).

Configuration: defaults come from an optional TOML file named by APTOS_CONFIG and from APTOS_* environment variables set in your MCP client config.

Key settings:
- APTOS_STRICT_TYPES (default: false) - fail on unknown "type" values
- APTOS_FORMAT_ASSERTION (default: false) - check "format" keywords
- APTOS_MAX_VIOLATIONS (default: 0, unlimited) - stop validation early
- APTOS_AVRO_NAMESPACE - default namespace for emitted Avro schemas
- APTOS_CACHE_ENABLED (default: true), APTOS_CACHE_TTL (default: 15m), APTOS_CACHE_MAX_SIZE (default: 10)
- APTOS_MCP_BLOCK_PRIVATE (default: true) - refuse schema URLs on private networks

Caching: parsed documents are cached per session. File entries use path+mtime as key, so edits are picked up.`

// sweepInterval is how often expired cache entries are removed.
const sweepInterval = time.Minute

// toolset holds the state shared by tool handlers.
type toolset struct {
	cfg    *config.Config
	logger schema.Logger
	cache  *docCache
	fetch  *httpfetch.Client
}

func newToolset(cfg *config.Config, logger schema.Logger) (*toolset, error) {
	if logger == nil {
		logger = schema.NopLogger{}
	}
	fetchOpts := append(cfg.FetchOptions(logger), httpfetch.WithPrivateAddressBlocking(cfg.MCP.BlockPrivate))
	fetch, err := httpfetch.New(fetchOpts...)
	if err != nil {
		return nil, err
	}
	ts := &toolset{cfg: cfg, logger: logger, fetch: fetch}
	if cfg.MCP.CacheEnabled {
		ts.cache = newDocCache(cfg.MCP.CacheMaxSize, cfg.MCP.CacheTTL.Duration)
	}
	return ts, nil
}

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger schema.Logger) error {
	ts, err := newToolset(cfg, logger)
	if err != nil {
		return err
	}
	if ts.cache != nil {
		ts.cache.startSweeper(ctx, sweepInterval)
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "aptos", Version: aptos.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	ts.register(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (ts *toolset) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_instance",
		Description: "Validate a JSON instance against a schema. Returns every violated constraint with its location in the instance (JSON pointer), the keyword that failed, and the expected and actual values. Pass the instance as a JSON value in instance, or as JSON/YAML text in instance_content to keep exact number formatting. Set formats=true to check string formats (email, date-time, uuid, ...).",
	}, ts.handleValidateInstance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "emit_avro",
		Description: "Convert a schema to an Avro schema. Objects become records, arrays become arrays, multi-type schemas become unions and string enums become Avro enums. Returns the Avro schema and any lossy-mapping issues. Set nullable_optional=true to make optional fields nullable with a null default.",
	}, ts.handleEmitAvro)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inspect_schema",
		Description: "Summarize a compiled schema graph: node counts per kind, reachable definitions, property and unresolved reference counts, maximum nesting depth, and whether the schema is recursive.",
	}, ts.handleInspectSchema)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}
