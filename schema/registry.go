package schema

import (
	"fmt"
	"sort"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/schemaerrors"
)

// Constructor builds one node of its kind from a raw schema. Keyword
// children are built below at.
type Constructor func(b *Builder, raw *document.Map, at Location) (Node, error)

// Registry maps schema discriminators to constructors. It is built once
// and passed to the Builder; there is no package-level registry.
type Registry struct {
	ctors  map[Kind]Constructor
	names  map[string]Kind
	strict bool
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*Registry) error

// RegistryStrict makes unknown "type" strings an error instead of an object.
func RegistryStrict(enabled bool) RegistryOption {
	return func(r *Registry) error {
		r.strict = enabled
		return nil
	}
}

// WithTypeAlias maps an extra "type" name onto a primitive kind, e.g.
// Swagger's "file" onto KindString.
func WithTypeAlias(name string, kind Kind) RegistryOption {
	return func(r *Registry) error {
		if !kind.IsPrimitive() {
			return &schemaerrors.ConfigError{
				Option:  "type alias",
				Value:   name,
				Message: fmt.Sprintf("kind %s is not a primitive type", kind),
			}
		}
		r.names[name] = kind
		return nil
	}
}

// NewRegistry returns a registry with a constructor for every kind.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		ctors: map[Kind]Constructor{
			KindObject:    (*Builder).object,
			KindArray:     (*Builder).array,
			KindString:    (*Builder).str,
			KindInteger:   (*Builder).integer,
			KindNumber:    (*Builder).number,
			KindBoolean:   (*Builder).boolean,
			KindNull:      (*Builder).null,
			KindUnion:     (*Builder).union,
			KindReference: (*Builder).reference,
			KindEnum:      (*Builder).enumerated,
		},
		names: make(map[string]Kind),
	}
	for _, k := range allKinds {
		if k.IsPrimitive() {
			r.names[k.String()] = k
		}
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	for _, k := range allKinds {
		if r.ctors[k] == nil {
			return nil, fmt.Errorf("schema: no constructor for kind %s", k)
		}
	}
	return r, nil
}

// Kinds returns every kind the registry can construct.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.ctors))
	for k := range r.ctors {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Known reports whether name is a recognized "type" string.
func (r *Registry) Known(name string) bool {
	_, ok := r.names[name]
	return ok
}

// Strict reports whether unknown type names are rejected.
func (r *Registry) Strict() bool { return r.strict }

// Create picks the kind and constructor for a raw schema:
//
//   - a "$ref" key selects Reference, whatever else is present
//   - a known "type" string selects that primitive
//   - an unknown "type" string selects Object, or fails in strict mode
//   - a "type" list selects Union
//   - no "type" selects Enumerated
//
// Any other "type" value is a ParseError.
func (r *Registry) Create(raw *document.Map, at Location) (Kind, Constructor, error) {
	if raw.Has("$ref") {
		return KindReference, r.ctors[KindReference], nil
	}
	t, ok := raw.Get("type")
	if !ok {
		return KindEnum, r.ctors[KindEnum], nil
	}
	switch tv := t.(type) {
	case string:
		k, err := r.kindFor(tv, at)
		if err != nil {
			return 0, nil, err
		}
		return k, r.ctors[k], nil
	case []any:
		return KindUnion, r.ctors[KindUnion], nil
	}
	return 0, nil, &schemaerrors.ParseError{
		Path:    at.Pointer,
		Message: fmt.Sprintf("type must be a string or an array, got %T", t),
	}
}

// kindFor maps a type name onto a kind, applying the object fallback.
func (r *Registry) kindFor(name string, at Location) (Kind, error) {
	if k, ok := r.names[name]; ok {
		return k, nil
	}
	if r.strict {
		return 0, &schemaerrors.UnsupportedTypeError{Path: at.Pointer, Type: name}
	}
	return KindObject, nil
}
