package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/erraggy/aptos"
	"github.com/erraggy/aptos/cmd/aptos/commands"
	"github.com/erraggy/aptos/internal/config"
	"github.com/erraggy/aptos/schema"
)

type handler func(ctx context.Context, env *commands.Env, args []string) error

var handlers = map[string]handler{
	"validate": commands.HandleValidate,
	"avro":     commands.HandleAvro,
	"inspect":  commands.HandleInspect,
	"fetch":    commands.HandleFetch,
	"mcp":      commands.HandleMCP,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes one command line and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return commands.ExitError
	}
	switch args[0] {
	case "version", "-v", "--version":
		_, _ = fmt.Fprintf(stdout, "aptos v%s\n\n%s\n", aptos.Version(), aptos.BuildInfo())
		return commands.ExitOK
	case "help", "-h", "--help":
		printUsage(stdout)
		return commands.ExitOK
	}

	global := flag.NewFlagSet("aptos", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "TOML configuration file (default: $APTOS_CONFIG)")
	logLevel := global.String("log-level", "", "log level: debug, info, warn, or error")
	global.Usage = func() { printUsage(stderr) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return commands.ExitOK
		}
		return commands.ExitError
	}
	if global.NArg() < 1 {
		printUsage(stderr)
		return commands.ExitError
	}

	command := global.Arg(0)
	h, ok := handlers[command]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			_, _ = fmt.Fprintf(stderr, "Did you mean '%s'?\n", s)
		}
		_, _ = fmt.Fprintf(stderr, "\nRun 'aptos help' for usage.\n")
		return commands.ExitError
	}

	bootstrap := schema.NewSlogAdapter(newSlogger(stderr, slog.LevelWarn))
	cfg, err := config.Load(*configPath, bootstrap)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return commands.ExitError
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
		if err := cfg.Check(); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return commands.ExitError
		}
	}

	env := commands.NewEnv(cfg, schema.NewSlogAdapter(newSlogger(stderr, cfg.SlogLevel())))
	env.Stdout, env.Stderr = stdout, stderr

	err = h(ctx, env, global.Args()[1:])
	if err != nil && !errors.Is(err, commands.ErrFailed) {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return commands.ExitCode(err)
}

func newSlogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// commandNames lists every command the CLI accepts, for suggestions.
func commandNames() []string {
	names := []string{"version", "help"}
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// suggestCommand returns the closest known command within edit distance 2
// of input, or "" when none is close enough.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames() {
		if d := editDistance(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, `aptos - JSON Schema type engine

Usage:
  aptos [--config FILE] [--log-level LEVEL] <command> [options]

Commands:
  validate    Validate a JSON instance against a JSON Schema
  avro        Convert a JSON Schema into an Avro schema
  inspect     Compile a schema and summarize its graph
  fetch       Call an endpoint and validate the response against its OpenAPI document
  mcp         Start the MCP server on stdio
  version     Show version information
  help        Show this help message

Examples:
  aptos validate pet.schema.json pet.json
  aptos validate --pointer /definitions/Pet swagger.yaml pet.json
  aptos avro --namespace com.example --check pet.schema.json
  aptos inspect --format json openapi.yaml
  aptos fetch --spec petstore.yaml https://petstore.example.com/v2/pet/12

Exit Codes:
  0    Success
  1    Violations found (or --check failed)
  2    Schema, reference, configuration or usage error

Run 'aptos <command> --help' for more information on a command.`)
}
