package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/erraggy/aptos/internal/issues"
	"github.com/erraggy/aptos/schema"
)

// InspectFlags contains flags for the inspect command
type InspectFlags struct {
	Pointer string
	Format  string
}

// SetupInspectFlags creates and configures a FlagSet for the inspect command.
func SetupInspectFlags(env *Env) (*flag.FlagSet, *InspectFlags) {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	flags := &InspectFlags{}

	fs.StringVar(&flags.Pointer, "pointer", "", "JSON pointer of the subschema to inspect")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: aptos inspect [flags] <schema|url|->\n\n")
		Writef(fs.Output(), "Compile a schema and summarize its graph.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  aptos inspect pet.schema.json\n")
		Writef(fs.Output(), "  aptos inspect --pointer /components/schemas/Pet --format json openapi.yaml\n")
	}

	return fs, flags
}

// inspectReport is the structured output of inspect.
type inspectReport struct {
	Schema   string         `json:"schema" yaml:"schema"`
	Pointer  string         `json:"pointer,omitempty" yaml:"pointer,omitempty"`
	RootKind string         `json:"root_kind" yaml:"root_kind"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Stats    schema.Stats   `json:"stats" yaml:"stats"`
	Issues   []issues.Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// HandleInspect executes the inspect command
func HandleInspect(ctx context.Context, env *Env, args []string) error {
	fs, flags := SetupInspectFlags(env)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("inspect command requires exactly one schema file, URL, or '-' for stdin")
	}
	schemaPath := fs.Arg(0)

	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	s, err := compileSchema(ctx, env, schemaPath, schema.WithPointer(flags.Pointer))
	if err != nil {
		return err
	}

	report := &inspectReport{
		Schema:   FormatPath(schemaPath),
		Pointer:  flags.Pointer,
		RootKind: s.Graph.Kind(s.Root).String(),
		Name:     s.Graph.Name(s.Root),
		Stats:    schema.GetStats(s.Graph, s.Root),
		Issues:   s.Issues,
	}
	if flags.Format != FormatText {
		return OutputStructured(env.Stdout, report, flags.Format)
	}

	w := env.Stdout
	Writef(w, "Schema: %s\n", report.Schema)
	if report.Pointer != "" {
		Writef(w, "Pointer: %s\n", report.Pointer)
	}
	Writef(w, "Root Kind: %s\n", report.RootKind)
	if report.Name != "" {
		Writef(w, "Name: %s\n", report.Name)
	}
	st := report.Stats
	Writef(w, "Nodes: %d\n", st.Nodes)
	for _, k := range sortedKeys(st.ByKind) {
		Writef(w, "  %-10s %d\n", k, st.ByKind[k])
	}
	Writef(w, "Properties: %d\n", st.Properties)
	Writef(w, "References: %d\n", st.References)
	Writef(w, "Max Depth: %d\n", st.MaxDepth)
	Writef(w, "Cyclic: %t\n", st.Cyclic)
	if len(st.Definitions) > 0 {
		Writef(w, "Definitions (%d): %s\n", len(st.Definitions), strings.Join(st.Definitions, ", "))
	}
	if len(report.Issues) > 0 {
		Writef(w, "\nIssues (%d):\n", len(report.Issues))
		for _, iss := range report.Issues {
			Writef(w, "  %s\n", iss.String())
		}
	}
	return nil
}
