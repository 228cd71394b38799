package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/erraggy/aptos/schema"
	"github.com/erraggy/aptos/validator"
)

// ValidateFlags contains flags for the validate command
type ValidateFlags struct {
	Pointer       string
	Format        string
	StrictTypes   bool
	Formats       bool
	MaxViolations int
	Quiet         bool
}

// SetupValidateFlags creates and configures a FlagSet for the validate command.
// Defaults come from env's configuration.
func SetupValidateFlags(env *Env) (*flag.FlagSet, *ValidateFlags) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	flags := &ValidateFlags{}

	fs.StringVar(&flags.Pointer, "pointer", "", "JSON pointer of the subschema to validate against (e.g. /definitions/Pet)")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.BoolVar(&flags.StrictTypes, "strict-types", env.Config.Schema.StrictTypes, "fail on unknown \"type\" values instead of treating them as objects")
	fs.BoolVar(&flags.Formats, "formats", env.Config.Validate.FormatAssertion, "assert \"format\" keywords (date-time, email, uuid, ...)")
	fs.IntVar(&flags.MaxViolations, "max-violations", env.Config.Validate.MaxViolations, "stop after this many violations (0 for no limit)")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output violations, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output violations, no diagnostic messages")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: aptos validate [flags] <schema|url> <instance|->\n\n")
		Writef(fs.Output(), "Validate a JSON instance against a JSON Schema.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nOutput Formats:\n")
		Writef(fs.Output(), "  text (default)  Human-readable text output\n")
		Writef(fs.Output(), "  json            JSON format for programmatic processing\n")
		Writef(fs.Output(), "  yaml            YAML format for programmatic processing\n")
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  aptos validate pet.schema.json pet.json\n")
		Writef(fs.Output(), "  aptos validate --pointer /definitions/Pet swagger.yaml pet.json\n")
		Writef(fs.Output(), "  curl -s https://example.com/pet/1 | aptos validate -q pet.schema.json -\n")
		Writef(fs.Output(), "  aptos validate --format json pet.schema.json pet.json | jq '.violations'\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Instance is valid\n")
		Writef(fs.Output(), "  1    Instance has violations\n")
		Writef(fs.Output(), "  2    Schema, reference or usage error\n")
	}

	return fs, flags
}

// HandleValidate executes the validate command
func HandleValidate(ctx context.Context, env *Env, args []string) error {
	fs, flags := SetupValidateFlags(env)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("validate command requires a schema and an instance (use '-' for stdin)")
	}
	schemaPath, instancePath := fs.Arg(0), fs.Arg(1)
	if schemaPath == StdinFilePath && instancePath == StdinFilePath {
		return fmt.Errorf("schema and instance cannot both be read from stdin")
	}

	// Validate format flag early to fail fast before expensive operations
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	startTime := time.Now()
	s, err := compileSchema(ctx, env, schemaPath,
		schema.WithStrictTypes(flags.StrictTypes),
		schema.WithPointer(flags.Pointer),
	)
	if err != nil {
		return err
	}
	instance, err := readInstance(env, instancePath)
	if err != nil {
		return err
	}

	opts := append(env.Config.ValidatorOptions(env.Logger),
		validator.WithFormatAssertion(flags.Formats),
		validator.WithMaxViolations(flags.MaxViolations),
	)
	res, err := validator.Validate(s, instance, opts...)
	if err != nil {
		return fmt.Errorf("validating instance: %w", err)
	}
	totalTime := time.Since(startTime)

	if flags.Format == FormatText && !flags.Quiet {
		fields := []string{"Schema", FormatPath(schemaPath)}
		if flags.Pointer != "" {
			fields = append(fields, "Pointer", flags.Pointer)
		}
		fields = append(fields,
			"Instance", FormatPath(instancePath),
			"Nodes", fmt.Sprint(s.Graph.Len()),
			"Total Time", totalTime.String(),
		)
		outputHeader(env, "JSON Schema Validator", fields...)
	}
	return writeValidation(env, newValidationReport(res), flags.Format, flags.Quiet)
}
