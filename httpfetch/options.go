package httpfetch

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/erraggy/aptos"
	"github.com/erraggy/aptos/schema"
	"github.com/erraggy/aptos/schemaerrors"
)

const (
	// DefaultTimeout bounds a whole request, body included.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize is the largest response body read, in bytes.
	DefaultMaxBodySize = 10 << 20
)

// Option configures a Client.
type Option func(*config) error

type config struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodySize  int64
	header       http.Header
	blockPrivate bool
	logger       schema.Logger
}

// WithHTTPClient sets the underlying client. Its Timeout is overridden by
// the client timeout (DefaultTimeout unless WithTimeout is given).
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) error {
		if c == nil {
			return errors.New("httpfetch: http client cannot be nil")
		}
		cfg.client = c
		return nil
	}
}

// WithTimeout sets the request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return &schemaerrors.ConfigError{Option: "timeout", Value: d, Message: "must not be negative"}
		}
		cfg.timeout = d
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cfg *config) error {
		cfg.userAgent = ua
		return nil
	}
}

// WithMaxBodySize sets the largest response body read, in bytes.
func WithMaxBodySize(n int64) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return &schemaerrors.ConfigError{Option: "max body size", Value: n, Message: "must be positive"}
		}
		cfg.maxBodySize = n
		return nil
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(cfg *config) error {
		if key == "" {
			return &schemaerrors.ConfigError{Option: "header", Message: "name cannot be empty"}
		}
		cfg.header.Add(key, value)
		return nil
	}
}

// WithPrivateAddressBlocking refuses to connect to private, loopback,
// link-local and unspecified addresses.
func WithPrivateAddressBlocking(enabled bool) Option {
	return func(cfg *config) error {
		cfg.blockPrivate = enabled
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l schema.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return fmt.Errorf("httpfetch: logger cannot be nil")
		}
		cfg.logger = l
		return nil
	}
}

func applyOptions(opts ...Option) (*config, error) {
	cfg := &config{
		timeout:     DefaultTimeout,
		userAgent:   aptos.UserAgent(),
		maxBodySize: DefaultMaxBodySize,
		header:      make(http.Header),
		logger:      schema.NopLogger{},
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
