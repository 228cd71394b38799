package avro

import (
	"fmt"

	"github.com/erraggy/aptos/schema"
)

// Option is a functional option for configuring Emit.
type Option func(*config) error

type config struct {
	namespace        string
	optionalNullable bool
	rootName         string
	logger           schema.Logger
}

func defaultConfig() *config {
	return &config{logger: schema.NopLogger{}}
}

// WithNamespace sets the namespace written on every named type.
func WithNamespace(ns string) Option {
	return func(c *config) error {
		for _, part := range splitNamespace(ns) {
			if !IsValidName(part) {
				return fmt.Errorf("avro: invalid namespace %q", ns)
			}
		}
		c.namespace = ns
		return nil
	}
}

// WithOptionalNullable emits fields that are not required as
// ["null", T] with a null default.
func WithOptionalNullable(enabled bool) Option {
	return func(c *config) error {
		c.optionalNullable = enabled
		return nil
	}
}

// WithRootName names the root type when it has no definition name or title.
func WithRootName(name string) Option {
	return func(c *config) error {
		if !IsValidName(name) {
			return fmt.Errorf("avro: invalid root name %q", name)
		}
		c.rootName = name
		return nil
	}
}

// WithLogger sets the logger for debug diagnostics.
func WithLogger(l schema.Logger) Option {
	return func(c *config) error {
		if l == nil {
			l = schema.NopLogger{}
		}
		c.logger = l
		return nil
	}
}
