package avro

import (
	"fmt"

	j "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"

	"github.com/erraggy/aptos/internal/issues"
	"github.com/erraggy/aptos/schema"
)

// Result is an emitted Avro schema.
type Result struct {
	// Schema is the Avro schema as a JSON value: a type name, a union list
	// or an ordered *document.Map.
	Schema any
	// Issues lists lossy or approximate mappings.
	Issues []issues.Issue
}

// JSON encodes the schema, keeping field order.
func (r *Result) JSON() ([]byte, error) {
	return j.Marshal(r.Schema)
}

// Codec parses the schema into a goavro codec.
func (r *Result) Codec() (*goavro.Codec, error) {
	data, err := r.JSON()
	if err != nil {
		return nil, fmt.Errorf("avro: encoding schema: %w", err)
	}
	codec, err := goavro.NewCodec(string(data))
	if err != nil {
		return nil, fmt.Errorf("avro: invalid schema: %w", err)
	}
	return codec, nil
}

// Check reports whether schemaJSON is a valid Avro schema.
func Check(schemaJSON []byte) error {
	if _, err := goavro.NewCodec(string(schemaJSON)); err != nil {
		return fmt.Errorf("avro: invalid schema: %w", err)
	}
	return nil
}

// Emit converts the node id of a resolved graph into an Avro schema.
func Emit(g *schema.Graph, id schema.ID, opts ...Option) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("avro: graph cannot be nil")
	}
	if g.Node(id) == nil {
		return nil, fmt.Errorf("avro: no node with id %d", id)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	e := newEmitter(g, id, cfg)
	out := e.emit(id, "")
	if e.err != nil {
		return nil, e.err
	}
	cfg.logger.Debug("avro schema emitted", "node", id, "named_types", len(e.emitted), "issues", len(e.issues))
	return &Result{Schema: out, Issues: e.issues}, nil
}
