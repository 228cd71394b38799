package schema

// Kind identifies a node variant.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindString
	KindInteger
	KindNumber
	KindBoolean
	KindNull
	KindUnion
	KindReference
	KindEnum
)

// allKinds lists every variant in a stable order.
var allKinds = []Kind{
	KindObject, KindArray, KindString, KindInteger, KindNumber,
	KindBoolean, KindNull, KindUnion, KindReference, KindEnum,
}

// String returns the lowercase kind name. Primitive kinds use their
// JSON Schema type name.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	case KindUnion:
		return "union"
	case KindReference:
		return "reference"
	case KindEnum:
		return "enum"
	}
	return "unknown"
}

// IsPrimitive reports whether k is named by a JSON Schema "type" string.
func (k Kind) IsPrimitive() bool {
	return k <= KindNull
}

// MarshalText encodes the kind as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
