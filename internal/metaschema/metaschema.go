// Package metaschema checks raw schemas against the JSON Schema draft-04
// meta-schema.
package metaschema

import (
	"bytes"
	"fmt"
	"sync"

	j "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Draft4URL identifies the draft-04 meta-schema, which the jsonschema
// library ships with and never fetches.
const Draft4URL = "http://json-schema.org/draft-04/schema"

var (
	once    sync.Once
	meta    *jsonschema.Schema
	metaErr error
)

func draft4() (*jsonschema.Schema, error) {
	once.Do(func() {
		c := jsonschema.NewCompiler()
		meta, metaErr = c.Compile(Draft4URL)
	})
	return meta, metaErr
}

// Check validates raw (any decoded JSON or YAML value, including ordered
// maps) against the draft-04 meta-schema.
func Check(raw any) error {
	sch, err := draft4()
	if err != nil {
		return fmt.Errorf("metaschema: compiling draft-04: %w", err)
	}
	data, err := j.Marshal(raw)
	if err != nil {
		return fmt.Errorf("metaschema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("metaschema: %w", err)
	}
	return sch.Validate(doc)
}
