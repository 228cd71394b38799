// Package commands provides CLI command handlers for aptos.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	j "github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/aptos"
	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/httpfetch"
	"github.com/erraggy/aptos/internal/config"
	"github.com/erraggy/aptos/internal/jsonvalue"
	"github.com/erraggy/aptos/schema"
	"github.com/erraggy/aptos/validator"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = document.StdinPath

// Exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitError  = 2
)

// ErrFailed is returned when a command ran to completion but its check did
// not pass, e.g. an instance with violations.
var ErrFailed = errors.New("check failed")

// ExitCode maps a handler error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrFailed):
		return ExitFailed
	}
	return ExitError
}

// Env is what a command runs with: configuration, logger and streams.
type Env struct {
	Config *config.Config
	Logger schema.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewEnv returns an Env over the process standard streams.
func NewEnv(cfg *config.Config, logger schema.Logger) *Env {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = schema.NopLogger{}
	}
	return &Env{Config: cfg, Logger: logger, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// OutputStructured writes data to w in the specified format (json or yaml).
func OutputStructured(w io.Writer, data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case FormatJSON:
		bytes, err = j.MarshalIndent(data, "", "  ")
	case FormatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}

	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	Writef(w, "%s\n", strings.TrimRight(string(bytes), "\n"))
	return nil
}

// FormatPath returns a display-friendly path.
// Returns "<stdin>" if the path is StdinFilePath, otherwise returns the path as-is.
func FormatPath(path string) string {
	if path == StdinFilePath {
		return "<stdin>"
	}
	return path
}

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr (useful for debugging).
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// outputHeader writes the common report header to stderr.
func outputHeader(env *Env, title string, fields ...string) {
	Writef(env.Stderr, "%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	Writef(env.Stderr, "aptos version: %s\n", aptos.Version())
	for i := 0; i+1 < len(fields); i += 2 {
		Writef(env.Stderr, "%s: %s\n", fields[i], fields[i+1])
	}
	Writef(env.Stderr, "\n")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// newFetchClient returns an HTTP client configured from env.
func newFetchClient(env *Env) (*httpfetch.Client, error) {
	return httpfetch.New(env.Config.FetchOptions(env.Logger)...)
}

// compileSchema compiles the schema at src, a file path, "-" or an http(s)
// URL. opts are applied after the configured defaults.
func compileSchema(ctx context.Context, env *Env, src string, opts ...schema.Option) (*schema.Schema, error) {
	base := env.Config.SchemaOptions(env.Logger)
	if !isURL(src) {
		s, err := schema.CompileFile(src, append(base, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("compiling %s: %w", FormatPath(src), err)
		}
		return s, nil
	}

	client, err := newFetchClient(env)
	if err != nil {
		return nil, err
	}
	raw, err := client.FetchDocument(ctx, src)
	if err != nil {
		return nil, err
	}
	base = append(base, schema.WithDocName(filepath.Base(src)))
	s, err := schema.Compile(raw, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", src, err)
	}
	return s, nil
}

// readInstance reads a JSON instance from path or stdin. Input that is not
// JSON is parsed as YAML.
func readInstance(env *Env, path string) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == StdinFilePath {
		data, err = io.ReadAll(io.LimitReader(env.Stdin, document.MaxSize+1))
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading instance %s: %w", FormatPath(path), err)
	}
	v, jsonErr := jsonvalue.DecodeBytes(data)
	if jsonErr == nil {
		return v, nil
	}
	v, err = document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", FormatPath(path), jsonErr)
	}
	return v, nil
}

// violationView is the structured rendering of one violation.
type violationView struct {
	Path       string `json:"path" yaml:"path"`
	Pointer    string `json:"pointer" yaml:"pointer"`
	Constraint string `json:"constraint" yaml:"constraint"`
	Message    string `json:"message" yaml:"message"`
	Expected   any    `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual     any    `json:"actual,omitempty" yaml:"actual,omitempty"`
}

// validationReport is the structured output of validate and fetch.
type validationReport struct {
	Valid          bool            `json:"valid" yaml:"valid"`
	Status         int             `json:"status,omitempty" yaml:"status,omitempty"`
	Template       string          `json:"template,omitempty" yaml:"template,omitempty"`
	ViolationCount int             `json:"violation_count" yaml:"violation_count"`
	Truncated      bool            `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Violations     []violationView `json:"violations,omitempty" yaml:"violations,omitempty"`
}

func newValidationReport(res *validator.Result) *validationReport {
	r := &validationReport{
		Valid:          res.Valid,
		ViolationCount: len(res.Violations),
		Truncated:      res.Truncated,
	}
	for _, v := range res.Violations {
		r.Violations = append(r.Violations, violationView{
			Path:       v.Location(),
			Pointer:    v.Pointer(),
			Constraint: v.Constraint,
			Message:    v.Message,
			Expected:   document.Plain(v.Expected),
			Actual:     document.Plain(v.Actual),
		})
	}
	return r
}

// writeValidation renders a validation result and returns ErrFailed when
// the instance is invalid.
func writeValidation(env *Env, report *validationReport, format string, quiet bool) error {
	if format != FormatText {
		if err := OutputStructured(env.Stdout, report, format); err != nil {
			return err
		}
	} else {
		for _, v := range report.Violations {
			Writef(env.Stdout, "  %s: %s\n", v.Path, v.Message)
		}
		if !quiet {
			if report.Valid {
				Writef(env.Stderr, "✓ Instance is valid\n")
			} else {
				Writef(env.Stderr, "\n✗ Validation failed: %d violation(s)", report.ViolationCount)
				if report.Truncated {
					Writef(env.Stderr, " (truncated)")
				}
				Writef(env.Stderr, "\n")
			}
		}
	}
	if !report.Valid {
		return fmt.Errorf("%w: %d violation(s)", ErrFailed, report.ViolationCount)
	}
	return nil
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
