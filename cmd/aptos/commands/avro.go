package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	j "github.com/goccy/go-json"

	"github.com/erraggy/aptos/avro"
	"github.com/erraggy/aptos/schema"
)

// AvroFlags contains flags for the avro command
type AvroFlags struct {
	Pointer          string
	Namespace        string
	RootName         string
	NullableOptional bool
	Check            bool
	Output           string
	Quiet            bool
}

// SetupAvroFlags creates and configures a FlagSet for the avro command.
func SetupAvroFlags(env *Env) (*flag.FlagSet, *AvroFlags) {
	fs := flag.NewFlagSet("avro", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	flags := &AvroFlags{}

	fs.StringVar(&flags.Pointer, "pointer", "", "JSON pointer of the subschema to convert (e.g. /definitions/Pet)")
	fs.StringVar(&flags.Namespace, "namespace", env.Config.Avro.Namespace, "Avro namespace for named types")
	fs.StringVar(&flags.RootName, "root-name", "", "name of the root record when the schema has no title")
	fs.BoolVar(&flags.NullableOptional, "nullable-optional", env.Config.Avro.OptionalNullable, "emit optional fields as [\"null\", T] with a null default")
	fs.BoolVar(&flags.Check, "check", false, "verify the emitted schema with an Avro parser")
	fs.StringVar(&flags.Output, "o", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: stdout)")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: do not report mapping issues")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: do not report mapping issues")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: aptos avro [flags] <schema|url|->\n\n")
		Writef(fs.Output(), "Convert a JSON Schema into an Avro schema.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  aptos avro pet.schema.json\n")
		Writef(fs.Output(), "  aptos avro --pointer /definitions/Pet --namespace com.example swagger.yaml\n")
		Writef(fs.Output(), "  aptos avro --check --nullable-optional -o pet.avsc pet.schema.json\n")
		Writef(fs.Output(), "\nNotes:\n")
		Writef(fs.Output(), "  - Lossy mappings (dropped constraints, widened unions) are reported on stderr\n")
		Writef(fs.Output(), "  - Output file is written with restrictive permissions (0600)\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Schema emitted\n")
		Writef(fs.Output(), "  1    --check rejected the emitted schema\n")
		Writef(fs.Output(), "  2    Schema, reference or usage error\n")
	}

	return fs, flags
}

// HandleAvro executes the avro command
func HandleAvro(ctx context.Context, env *Env, args []string) error {
	fs, flags := SetupAvroFlags(env)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("avro command requires exactly one schema file, URL, or '-' for stdin")
	}
	schemaPath := fs.Arg(0)

	if flags.Output != "" {
		if abs, err := filepath.Abs(flags.Output); err == nil && schemaPath != StdinFilePath {
			if in, err := filepath.Abs(schemaPath); err == nil && in == abs {
				return fmt.Errorf("output file %s would overwrite input file %s", flags.Output, schemaPath)
			}
		}
	}

	s, err := compileSchema(ctx, env, schemaPath, schema.WithPointer(flags.Pointer))
	if err != nil {
		return err
	}

	opts := append(env.Config.AvroOptions(env.Logger),
		avro.WithOptionalNullable(flags.NullableOptional),
	)
	if flags.Namespace != env.Config.Avro.Namespace {
		opts = append(opts, avro.WithNamespace(flags.Namespace))
	}
	if flags.RootName != "" {
		opts = append(opts, avro.WithRootName(flags.RootName))
	}
	res, err := avro.Emit(s.Graph, s.Root, opts...)
	if err != nil {
		return fmt.Errorf("emitting avro: %w", err)
	}

	if !flags.Quiet {
		for _, iss := range res.Issues {
			Writef(env.Stderr, "  %s\n", iss.String())
		}
	}

	data, err := j.MarshalIndent(res.Schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling avro schema: %w", err)
	}
	if flags.Output != "" {
		if err := os.WriteFile(flags.Output, append(data, '\n'), 0600); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		if !flags.Quiet {
			Writef(env.Stderr, "Output written to: %s\n", flags.Output)
		}
	} else {
		Writef(env.Stdout, "%s\n", data)
	}

	if flags.Check {
		if err := avro.Check(data); err != nil {
			return fmt.Errorf("%w: %w", ErrFailed, err)
		}
		if !flags.Quiet {
			Writef(env.Stderr, "✓ Avro schema check passed\n")
		}
	}
	return nil
}
