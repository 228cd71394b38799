// Package config loads process configuration for the aptos CLI and MCP
// server: defaults, then an optional TOML file, then APTOS_* environment
// variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/erraggy/aptos/avro"
	"github.com/erraggy/aptos/httpfetch"
	"github.com/erraggy/aptos/schema"
	"github.com/erraggy/aptos/schemaerrors"
	vdr "github.com/erraggy/aptos/validator"
)

// EnvFile names the environment variable holding the config file path.
const EnvFile = "APTOS_CONFIG"

// Duration is a time.Duration read from strings like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full process configuration.
type Config struct {
	LogLevel string         `toml:"log_level" validate:"oneof=debug info warn error"`
	Schema   SchemaConfig   `toml:"schema"`
	Validate ValidateConfig `toml:"validate"`
	Avro     AvroConfig     `toml:"avro"`
	Fetch    FetchConfig    `toml:"fetch"`
	MCP      MCPConfig      `toml:"mcp"`
}

// SchemaConfig configures schema building.
type SchemaConfig struct {
	StrictTypes     bool `toml:"strict_types"`
	MaxDepth        int  `toml:"max_depth" validate:"min=1,max=10000"`
	MetaSchemaCheck bool `toml:"meta_schema_check"`
}

// ValidateConfig configures instance validation.
type ValidateConfig struct {
	FormatAssertion bool `toml:"format_assertion"`
	MaxViolations   int  `toml:"max_violations" validate:"min=0"`
}

// AvroConfig configures Avro emission.
type AvroConfig struct {
	Namespace        string `toml:"namespace" validate:"omitempty,avro_namespace"`
	OptionalNullable bool   `toml:"optional_nullable"`
}

// FetchConfig configures the HTTP client.
type FetchConfig struct {
	Timeout      Duration `toml:"timeout" validate:"min=0s"`
	MaxBodySize  int64    `toml:"max_body_size" validate:"min=1"`
	UserAgent    string   `toml:"user_agent"`
	BlockPrivate bool     `toml:"block_private"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	CacheEnabled bool     `toml:"cache_enabled"`
	CacheMaxSize int      `toml:"cache_max_size" validate:"min=1,max=1000"`
	CacheTTL     Duration `toml:"cache_ttl" validate:"min=1s"`
	// BlockPrivate refuses schema URLs that resolve to private addresses.
	BlockPrivate bool `toml:"block_private"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "warn",
		Schema:   SchemaConfig{MaxDepth: schema.MaxDepth},
		Fetch: FetchConfig{
			Timeout:     Duration{httpfetch.DefaultTimeout},
			MaxBodySize: httpfetch.DefaultMaxBodySize,
		},
		MCP: MCPConfig{
			CacheEnabled: true,
			CacheMaxSize: 10,
			CacheTTL:     Duration{15 * time.Minute},
			BlockPrivate: true,
		},
	}
}

// Load returns the configuration from path (or $APTOS_CONFIG when path is
// empty) with environment overrides applied. A missing file is an error
// only when path was given explicitly.
func Load(path string, logger schema.Logger) (*Config, error) {
	if logger == nil {
		logger = schema.NopLogger{}
	}
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvFile)
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if !explicit && errors.Is(err, os.ErrNotExist) {
				logger.Warn("config file not found, using defaults", "path", path)
			} else {
				return nil, err
			}
		}
	}
	cfg.applyEnv(logger)
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return &schemaerrors.ConfigError{Option: "file", Value: path, Message: perr.Message, Cause: err}
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config: %w", err)
		}
		return &schemaerrors.ConfigError{Option: "file", Value: path, Cause: err}
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return &schemaerrors.ConfigError{
			Option:  "file",
			Value:   path,
			Message: "unknown keys: " + strings.Join(keys, ", "),
		}
	}
	return nil
}

// Check validates every field constraint.
func (c *Config) Check() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &schemaerrors.ConfigError{Message: "invalid configuration", Cause: err}
	}
	e := verrs[0]
	return &schemaerrors.ConfigError{
		Option:  tomlPath(e.Namespace()),
		Value:   e.Value(),
		Message: tagMessage(e),
	}
}

// SlogLevel returns LogLevel as a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

// SchemaOptions returns the schema options for this configuration.
func (c *Config) SchemaOptions(logger schema.Logger) []schema.Option {
	opts := []schema.Option{
		schema.WithStrictTypes(c.Schema.StrictTypes),
		schema.WithMaxDepth(c.Schema.MaxDepth),
		schema.WithMetaSchemaCheck(c.Schema.MetaSchemaCheck),
	}
	if logger != nil {
		opts = append(opts, schema.WithLogger(logger))
	}
	return opts
}

// ValidatorOptions returns the validator options for this configuration.
func (c *Config) ValidatorOptions(logger schema.Logger) []vdr.Option {
	opts := []vdr.Option{
		vdr.WithFormatAssertion(c.Validate.FormatAssertion),
		vdr.WithMaxViolations(c.Validate.MaxViolations),
	}
	if logger != nil {
		opts = append(opts, vdr.WithLogger(logger))
	}
	return opts
}

// AvroOptions returns the Avro options for this configuration.
func (c *Config) AvroOptions(logger schema.Logger) []avro.Option {
	opts := []avro.Option{avro.WithOptionalNullable(c.Avro.OptionalNullable)}
	if c.Avro.Namespace != "" {
		opts = append(opts, avro.WithNamespace(c.Avro.Namespace))
	}
	if logger != nil {
		opts = append(opts, avro.WithLogger(logger))
	}
	return opts
}

// FetchOptions returns the HTTP client options for this configuration.
func (c *Config) FetchOptions(logger schema.Logger) []httpfetch.Option {
	opts := []httpfetch.Option{
		httpfetch.WithTimeout(c.Fetch.Timeout.Duration),
		httpfetch.WithMaxBodySize(c.Fetch.MaxBodySize),
		httpfetch.WithPrivateAddressBlocking(c.Fetch.BlockPrivate),
	}
	if c.Fetch.UserAgent != "" {
		opts = append(opts, httpfetch.WithUserAgent(c.Fetch.UserAgent))
	}
	if logger != nil {
		opts = append(opts, httpfetch.WithLogger(logger))
	}
	return opts
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	must(v.RegisterValidation("avro_namespace", func(fl validator.FieldLevel) bool {
		for _, part := range strings.Split(fl.Field().String(), ".") {
			if !avro.IsValidName(part) {
				return false
			}
		}
		return true
	}))
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(Duration); ok {
			return d.Duration
		}
		return nil
	}, Duration{})
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// tomlPath strips the root struct name from a validator namespace.
func tomlPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func tagMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "avro_namespace":
		return "must be dot-separated Avro names"
	}
	return "failed " + e.Tag() + " check"
}
