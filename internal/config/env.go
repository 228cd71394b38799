package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/erraggy/aptos/schema"
)

// applyEnv overrides fields from APTOS_* environment variables. Invalid
// values log a warning and leave the field unchanged.
func (c *Config) applyEnv(logger schema.Logger) {
	env := envReader{logger: logger}
	env.str("APTOS_LOG_LEVEL", &c.LogLevel)
	env.boolean("APTOS_STRICT_TYPES", &c.Schema.StrictTypes)
	env.integer("APTOS_MAX_DEPTH", &c.Schema.MaxDepth)
	env.boolean("APTOS_META_SCHEMA_CHECK", &c.Schema.MetaSchemaCheck)
	env.boolean("APTOS_FORMAT_ASSERTION", &c.Validate.FormatAssertion)
	env.integer("APTOS_MAX_VIOLATIONS", &c.Validate.MaxViolations)
	env.str("APTOS_AVRO_NAMESPACE", &c.Avro.Namespace)
	env.boolean("APTOS_NULLABLE_OPTIONAL", &c.Avro.OptionalNullable)
	env.duration("APTOS_FETCH_TIMEOUT", &c.Fetch.Timeout)
	env.long("APTOS_FETCH_MAX_BODY_SIZE", &c.Fetch.MaxBodySize)
	env.str("APTOS_USER_AGENT", &c.Fetch.UserAgent)
	env.boolean("APTOS_FETCH_BLOCK_PRIVATE", &c.Fetch.BlockPrivate)
	env.boolean("APTOS_CACHE_ENABLED", &c.MCP.CacheEnabled)
	env.integer("APTOS_CACHE_MAX_SIZE", &c.MCP.CacheMaxSize)
	env.duration("APTOS_CACHE_TTL", &c.MCP.CacheTTL)
	env.boolean("APTOS_MCP_BLOCK_PRIVATE", &c.MCP.BlockPrivate)
}

type envReader struct {
	logger schema.Logger
}

func (e envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e envReader) invalid(key, value string, current any) {
	e.logger.Warn("invalid env var, keeping current value", "key", key, "value", value, "current", current)
}

func (e envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e envReader) boolean(key string, dst *bool) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.invalid(key, v, *dst)
		return
	}
	*dst = b
}

func (e envReader) integer(key string, dst *int) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.invalid(key, v, *dst)
		return
	}
	*dst = n
}

func (e envReader) long(key string, dst *int64) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.invalid(key, v, *dst)
		return
	}
	*dst = n
}

func (e envReader) duration(key string, dst *Duration) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.invalid(key, v, dst.Duration)
		return
	}
	dst.Duration = d
}
