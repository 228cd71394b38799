package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/erraggy/aptos/internal/mcpserver"
)

// runMCP is swapped out in tests.
var runMCP = mcpserver.Run

// HandleMCP executes the mcp command: an MCP server over stdio until the
// client disconnects or ctx is cancelled.
func HandleMCP(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	fs.Usage = func() {
		Writef(fs.Output(), "Usage: aptos mcp\n\n")
		Writef(fs.Output(), "Serve the validate_instance, emit_avro and inspect_schema tools over\n")
		Writef(fs.Output(), "the Model Context Protocol on stdin/stdout.\n\n")
		Writef(fs.Output(), "Configuration is read from --config, $APTOS_CONFIG and APTOS_* variables.\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("mcp command takes no arguments")
	}
	env.Logger.Info("starting MCP server",
		"cache", env.Config.MCP.CacheEnabled,
		"block_private", env.Config.MCP.BlockPrivate)
	return runMCP(ctx, env.Config, env.Logger)
}
