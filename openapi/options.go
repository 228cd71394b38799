package openapi

import (
	"errors"

	"github.com/erraggy/aptos/schema"
)

// Option configures Load.
type Option func(*config) error

type config struct {
	schemaOpts []schema.Option
	logger     schema.Logger
	strict     bool
	docName    string
	baseDir    string
}

func applyOptions(opts ...Option) (*config, error) {
	cfg := &config{logger: schema.NopLogger{}}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithSchemaOptions passes options to the schema builder and resolver.
// A schema.WithRegistry here replaces the registry Load would pick.
func WithSchemaOptions(opts ...schema.Option) Option {
	return func(c *config) error {
		c.schemaOpts = append(c.schemaOpts, opts...)
		return nil
	}
}

// WithLogger sets the logger for document loading and schema building.
func WithLogger(l schema.Logger) Option {
	return func(c *config) error {
		if l == nil {
			return errors.New("openapi: logger cannot be nil")
		}
		c.logger = l
		return nil
	}
}

// WithStrictTypes makes unknown "type" values fail instead of building
// objects.
func WithStrictTypes(enabled bool) Option {
	return func(c *config) error {
		c.strict = enabled
		return nil
	}
}

// WithDocName sets the key external references use for the main document.
func WithDocName(name string) Option {
	return func(c *config) error {
		c.docName = name
		return nil
	}
}

// WithBaseDir sets the directory external file references resolve against.
func WithBaseDir(dir string) Option {
	return func(c *config) error {
		c.baseDir = dir
		return nil
	}
}
