package validator

import (
	"fmt"

	"github.com/erraggy/aptos/schema"
)

// Option is a functional option for configuring a Validator.
type Option func(*config) error

type config struct {
	formatAssertion bool
	maxViolations   int
	logger          schema.Logger
}

func defaultConfig() *config {
	return &config{logger: schema.NopLogger{}}
}

// WithFormatAssertion reports "format" violations for the email, uri, date,
// date-time and uuid formats. Default is false: formats are annotations.
func WithFormatAssertion(enabled bool) Option {
	return func(c *config) error {
		c.formatAssertion = enabled
		return nil
	}
}

// WithMaxViolations stops collecting after n violations and marks the
// result truncated. Zero means no limit.
func WithMaxViolations(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("validator: maxViolations cannot be negative")
		}
		c.maxViolations = n
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
