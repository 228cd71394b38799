package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/erraggy/aptos/openapi"
	"github.com/erraggy/aptos/validator"
)

// FetchFlags contains flags for the fetch command
type FetchFlags struct {
	Spec   string
	Method string
	Path   string
	Data   string
	Format string
	Quiet  bool
}

// SetupFetchFlags creates and configures a FlagSet for the fetch command.
func SetupFetchFlags(env *Env) (*flag.FlagSet, *FetchFlags) {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	flags := &FetchFlags{}

	fs.StringVar(&flags.Spec, "spec", "", "Swagger 2.0 or OpenAPI 3.x document describing the endpoint (required)")
	fs.StringVar(&flags.Method, "method", http.MethodGet, "HTTP method")
	fs.StringVar(&flags.Path, "path", "", "path template to validate against (default: matched from the URL)")
	fs.StringVar(&flags.Data, "d", "", "file holding the JSON request body")
	fs.StringVar(&flags.Data, "data", "", "file holding the JSON request body")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output violations, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output violations, no diagnostic messages")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: aptos fetch --spec <openapi> [flags] <url>\n\n")
		Writef(fs.Output(), "Call an HTTP endpoint and validate the JSON response against the\n")
		Writef(fs.Output(), "response schema its OpenAPI document declares for the returned status.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  aptos fetch --spec petstore.yaml https://petstore.example.com/v2/pet/12\n")
		Writef(fs.Output(), "  aptos fetch --spec openapi.json --path /pet/{petId} https://api.example.com/pet/12\n")
		Writef(fs.Output(), "  aptos fetch --spec openapi.json --method POST -d pet.json https://api.example.com/pet\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Response matches its schema\n")
		Writef(fs.Output(), "  1    Response has violations\n")
		Writef(fs.Output(), "  2    Request, document or usage error\n")
	}

	return fs, flags
}

// HandleFetch executes the fetch command
func HandleFetch(ctx context.Context, env *Env, args []string) error {
	fs, flags := SetupFetchFlags(env)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("fetch command requires exactly one URL")
	}
	target := fs.Arg(0)
	if flags.Spec == "" {
		fs.Usage()
		return fmt.Errorf("an OpenAPI document is required (use --spec)")
	}
	if !isURL(target) {
		return fmt.Errorf("invalid URL %q: must start with http:// or https://", target)
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	method := strings.ToUpper(flags.Method)

	doc, err := openapi.LoadFile(flags.Spec,
		openapi.WithLogger(env.Logger),
		openapi.WithStrictTypes(env.Config.Schema.StrictTypes),
		openapi.WithSchemaOptions(env.Config.SchemaOptions(env.Logger)...),
	)
	if err != nil {
		return fmt.Errorf("loading %s: %w", flags.Spec, err)
	}

	var body any
	if flags.Data != "" {
		data, err := os.ReadFile(flags.Data)
		if err != nil {
			return fmt.Errorf("reading request body: %w", err)
		}
		body = data
	}

	client, err := newFetchClient(env)
	if err != nil {
		return err
	}
	startTime := time.Now()
	resp, err := client.Do(ctx, method, target, body)
	if err != nil {
		return err
	}
	totalTime := time.Since(startTime)

	path := flags.Path
	if path == "" {
		path = resp.URL
	}
	s, err := doc.ResponseSchema(method, resp.Status, path)
	if err != nil {
		return fmt.Errorf("%s %s (status %d): %w", method, path, resp.Status, err)
	}
	res, err := validator.Validate(s, resp.Body, env.Config.ValidatorOptions(env.Logger)...)
	if err != nil {
		return fmt.Errorf("validating response: %w", err)
	}

	report := newValidationReport(res)
	report.Status = resp.Status
	template, _, _ := doc.Match(path)
	if flags.Path != "" {
		template = flags.Path
	}
	report.Template = template

	if flags.Format == FormatText && !flags.Quiet {
		outputHeader(env, "OpenAPI Response Validator",
			"Specification", flags.Spec,
			"OAS Version", doc.Version,
			"Request", method+" "+target,
			"Status", fmt.Sprint(resp.Status),
			"Template", template,
			"Response Time", totalTime.String(),
		)
	}
	return writeValidation(env, report, flags.Format, flags.Quiet)
}
