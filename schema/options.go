package schema

import "fmt"

// MaxDepth bounds how deeply nested a raw schema may be before the builder
// gives up.
const MaxDepth = 100

// Option configures Compile.
type Option func(*compileConfig) error

type compileConfig struct {
	registry        *Registry
	strict          bool
	logger          Logger
	baseDir         string
	docName         string
	pointer         string
	maxDepth        int
	metaSchemaCheck bool
	skipResolve     bool
}

func applyOptions(opts ...Option) (*compileConfig, error) {
	cfg := &compileConfig{
		logger:   NopLogger{},
		baseDir:  ".",
		maxDepth: MaxDepth,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithRegistry sets the registry used to construct nodes.
// When omitted, a default registry is created honoring WithStrictTypes.
func WithRegistry(r *Registry) Option {
	return func(cfg *compileConfig) error {
		if r == nil {
			return fmt.Errorf("schema: registry cannot be nil")
		}
		cfg.registry = r
		return nil
	}
}

// WithStrictTypes rejects unknown "type" strings instead of building them
// as objects. It has no effect when WithRegistry supplies a registry.
func WithStrictTypes(enabled bool) Option {
	return func(cfg *compileConfig) error {
		cfg.strict = enabled
		return nil
	}
}

// WithLogger sets the logger for build and resolution diagnostics.
func WithLogger(l Logger) Option {
	return func(cfg *compileConfig) error {
		if l == nil {
			l = NopLogger{}
		}
		cfg.logger = l
		return nil
	}
}

// WithBaseDir sets the directory external file references are resolved
// against. References may not leave this directory. Defaults to ".".
func WithBaseDir(dir string) Option {
	return func(cfg *compileConfig) error {
		cfg.baseDir = dir
		return nil
	}
}

// WithDocName sets the document key recorded in the locations of the main
// document. Defaults to "".
func WithDocName(name string) Option {
	return func(cfg *compileConfig) error {
		cfg.docName = name
		return nil
	}
}

// WithPointer compiles the subschema at the given JSON pointer instead of
// the document root, e.g. "/definitions/Pet". References still resolve
// against the whole document.
func WithPointer(pointer string) Option {
	return func(cfg *compileConfig) error {
		cfg.pointer = pointer
		return nil
	}
}

// WithMaxDepth sets the maximum nesting depth of the raw schema.
// A value of 0 means use the default (100).
// Returns an error if depth is negative.
func WithMaxDepth(depth int) Option {
	return func(cfg *compileConfig) error {
		if depth < 0 {
			return fmt.Errorf("schema: maxDepth cannot be negative")
		}
		if depth == 0 {
			depth = MaxDepth
		}
		cfg.maxDepth = depth
		return nil
	}
}

// WithMetaSchemaCheck validates the compiled subschema against the JSON
// Schema draft-04 meta-schema before building it.
func WithMetaSchemaCheck(enabled bool) Option {
	return func(cfg *compileConfig) error {
		cfg.metaSchemaCheck = enabled
		return nil
	}
}

// WithoutResolve stops Compile after building, leaving Reference nodes in
// the graph.
func WithoutResolve() Option {
	return func(cfg *compileConfig) error {
		cfg.skipResolve = true
		return nil
	}
}
