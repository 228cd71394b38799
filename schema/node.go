package schema

import (
	"fmt"
	"regexp"
)

// ID addresses a node inside a Graph.
type ID int

// NoID marks an empty child slot.
const NoID ID = -1

// Valid reports whether id refers to a node.
func (id ID) Valid() bool { return id >= 0 }

// Node is implemented by the ten schema variants only.
type Node interface {
	// Kind returns the variant.
	Kind() Kind
	// Common returns the attributes every variant carries.
	Common() *Base
	isNode()
}

// Base holds the attributes shared by every variant.
type Base struct {
	// Enum lists the allowed literals, deduplicated, in source order.
	// An empty list imposes no constraint.
	Enum []any
	// Const is the single allowed literal when HasConst is set.
	Const    any
	HasConst bool

	// AllOf, AnyOf and OneOf hold subschema IDs in source order.
	// AnyOf and OneOf are modeled but not enforced.
	AllOf []ID
	AnyOf []ID
	OneOf []ID

	// Definitions is the local "definitions"/"$defs" namespace.
	Definitions []Definition

	Title       string
	Description string
	Format      string
	Default     any
	HasDefault  bool
	Examples    []any
}

// Common implements Node for every variant through embedding.
func (b *Base) Common() *Base { return b }

// Definition is a named entry of a definitions block.
type Definition struct {
	Name string
	Node ID
}

// Property is a named entry of an object's properties.
type Property struct {
	Name string
	Node ID
}

// Numeric holds the constraints shared by Integer and Number.
type Numeric struct {
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64
}

// Object is a record with named, ordered properties.
type Object struct {
	Base
	Properties    []Property
	Required      []string
	MinProperties *int
	MaxProperties *int

	// Inert attributes, kept as raw values.
	PatternProperties    any
	AdditionalProperties any
	Dependencies         any
	PropertyNames        any

	// MergedAllOf is set when allOf branches were folded into Properties.
	MergedAllOf bool
}

// Property returns the ID of the named property.
func (o *Object) Property(name string) (ID, bool) {
	for _, p := range o.Properties {
		if p.Name == name {
			return p.Node, true
		}
	}
	return NoID, false
}

// IsRequired reports whether name is listed in Required.
func (o *Object) IsRequired(name string) bool {
	for _, r := range o.Required {
		if r == name {
			return true
		}
	}
	return false
}

// setProperty replaces an existing property in place or appends a new one.
func (o *Object) setProperty(name string, id ID) {
	for i, p := range o.Properties {
		if p.Name == name {
			o.Properties[i].Node = id
			return
		}
	}
	o.Properties = append(o.Properties, Property{Name: name, Node: id})
}

// Array is a list, homogeneous when Items is set and a tuple when Tuple is.
type Array struct {
	Base
	Items       ID
	Tuple       []ID
	MinItems    *int
	MaxItems    *int
	UniqueItems bool
	// AdditionalItems is the boolean form; nil when absent.
	AdditionalItems *bool
	// AdditionalItemsSchema is the schema form; NoID when absent.
	AdditionalItemsSchema ID
}

// IsTuple reports whether the array validates items by position.
func (a *Array) IsTuple() bool { return a.Tuple != nil }

// String is a text value.
type String struct {
	Base
	MinLength *int
	MaxLength *int
	// Pattern is matched anywhere in the value, not anchored.
	Pattern string
}

// Integer is a whole number.
type Integer struct {
	Base
	Numeric
}

// Number is any JSON number.
type Number struct {
	Base
	Numeric
}

// Boolean is true or false.
type Boolean struct{ Base }

// Null is the JSON null value.
type Null struct{ Base }

// Union accepts one of several alternatives, chosen by the instance kind.
type Union struct {
	Base
	Alternatives []ID
}

// Enumerated is a schema without a "type": only the shared attributes apply.
type Enumerated struct{ Base }

// Reference is an unresolved "$ref". None remain reachable after resolution.
type Reference struct {
	Base
	// Ref is the raw reference string.
	Ref string
	// Doc is the key of the document the reference appeared in.
	Doc string
}

func (*Object) Kind() Kind     { return KindObject }
func (*Array) Kind() Kind      { return KindArray }
func (*String) Kind() Kind     { return KindString }
func (*Integer) Kind() Kind    { return KindInteger }
func (*Number) Kind() Kind     { return KindNumber }
func (*Boolean) Kind() Kind    { return KindBoolean }
func (*Null) Kind() Kind       { return KindNull }
func (*Union) Kind() Kind      { return KindUnion }
func (*Reference) Kind() Kind  { return KindReference }
func (*Enumerated) Kind() Kind { return KindEnum }

func (*Object) isNode()     {}
func (*Array) isNode()      {}
func (*String) isNode()     {}
func (*Integer) isNode()    {}
func (*Number) isNode()     {}
func (*Boolean) isNode()    {}
func (*Null) isNode()       {}
func (*Union) isNode()      {}
func (*Reference) isNode()  {}
func (*Enumerated) isNode() {}

// refPattern accepts an optional scheme, optional authority, a path without
// whitespace, an optional query and an optional fragment.
var refPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]*:)?(//[^/?#\s]*)?[^?#\s]*(\?[^#\s]*)?(#\S*)?$`)

// NewReference returns a Reference for ref found in document doc.
// It fails when ref is empty or is not a URI reference.
func NewReference(ref, doc string) (*Reference, error) {
	if ref == "" || !refPattern.MatchString(ref) {
		return nil, fmt.Errorf("invalid $ref %q", ref)
	}
	return &Reference{Ref: ref, Doc: doc}, nil
}

func newArray() *Array {
	return &Array{Items: NoID, AdditionalItemsSchema: NoID}
}
