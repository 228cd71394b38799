package avro

import (
	"testing"

	j "github.com/goccy/go-json"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/internal/severity"
	"github.com/erraggy/aptos/schema"
	"github.com/erraggy/aptos/schemaerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string, opts ...schema.Option) *schema.Schema {
	t.Helper()
	raw, err := document.Parse([]byte(src))
	require.NoError(t, err)
	s, err := schema.Compile(raw, opts...)
	require.NoError(t, err)
	return s
}

func emitJSON(t *testing.T, s *schema.Schema, opts ...Option) (*Result, string) {
	t.Helper()
	res, err := Emit(s.Graph, s.Root, opts...)
	require.NoError(t, err)
	out, err := res.JSON()
	require.NoError(t, err)
	require.NoError(t, Check(out), string(out))
	return res, string(out)
}

const productSchema = `{
	"title": "Product",
	"description": "A product from the catalog",
	"type": "object",
	"required": ["id", "name", "price"],
	"properties": {
		"id": {"description": "The unique identifier for a product", "type": "integer"},
		"name": {"type": "string"},
		"price": {"type": "number", "minimum": 0, "exclusiveMinimum": true},
		"tags": {"type": "array", "items": {"type": "string"}, "minItems": 1, "uniqueItems": true},
		"dimensions": {
			"type": "object",
			"required": ["length", "width", "height"],
			"properties": {
				"length": {"type": "number"},
				"width": {"type": "number"},
				"height": {"type": "number"}
			}
		},
		"warehouseLocation": {"$ref": "#/definitions/GeoLocation"}
	},
	"definitions": {
		"GeoLocation": {
			"description": "A geographical coordinate",
			"type": "object",
			"properties": {
				"latitude": {"type": "number"},
				"longitude": {"type": "number"}
			}
		}
	}
}`

func TestEmitProduct(t *testing.T) {
	s := compile(t, productSchema)
	res, out := emitJSON(t, s)
	assert.Empty(t, res.Issues)

	assert.JSONEq(t, `{
		"type": "record",
		"name": "Product",
		"doc": "A product from the catalog",
		"fields": [
			{"name": "id", "doc": "The unique identifier for a product", "type": "int"},
			{"name": "name", "type": "string"},
			{"name": "price", "type": "double"},
			{"name": "tags", "type": {"type": "array", "items": "string"}},
			{"name": "dimensions", "type": {"type": "record", "name": "Dimensions", "fields": [
				{"name": "length", "type": "double"},
				{"name": "width", "type": "double"},
				{"name": "height", "type": "double"}
			]}},
			{"name": "warehouseLocation", "doc": "A geographical coordinate", "type": {"type": "record", "name": "GeoLocation", "doc": "A geographical coordinate", "fields": [
				{"name": "latitude", "type": "double"},
				{"name": "longitude", "type": "double"}
			]}}
		]
	}`, out)

	// field order is the source property order
	assert.Regexp(t, `"name":"id".*"name":"name".*"name":"price".*"name":"tags".*"name":"dimensions".*"name":"warehouseLocation"`, out)

	codec, err := res.Codec()
	require.NoError(t, err)
	native := map[string]any{
		"id":    2,
		"name":  "An ice sculpture",
		"price": 12.50,
		"tags":  []any{"cold", "ice"},
		"dimensions": map[string]any{
			"length": 7.0, "width": 12.0, "height": 9.5,
		},
		"warehouseLocation": map[string]any{"latitude": -78.75, "longitude": 20.4},
	}
	bin, err := codec.BinaryFromNative(nil, native)
	require.NoError(t, err)
	decoded, _, err := codec.NativeFromBinary(bin)
	require.NoError(t, err)
	assert.Equal(t, "An ice sculpture", decoded.(map[string]any)["name"])
}

func TestEmitMergedAllOf(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"title": "Pet",
		"allOf": [
			{"type": "object", "properties": {"id": {"type": "integer", "format": "int64"}, "name": {"type": "string"}}},
			{"type": "object", "properties": {"tag": {"type": "string"}, "weight": {"type": "number", "format": "float"}}}
		]
	}`)
	res, out := emitJSON(t, s)
	assert.Empty(t, res.Issues)
	assert.JSONEq(t, `{
		"type": "record",
		"name": "Pet",
		"fields": [
			{"name": "id", "type": "long"},
			{"name": "name", "type": "string"},
			{"name": "tag", "type": "string"},
			{"name": "weight", "type": "float"}
		]
	}`, out)
}

func TestEmitUnmergedAllOfIsNoted(t *testing.T) {
	s := compile(t, `{"type": "object", "properties": {"a": {"type": "string"}}, "allOf": [{"type": "string"}]}`)
	res, _ := emitJSON(t, s)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "allOf", res.Issues[0].Keyword)
	assert.Equal(t, severity.SeverityInfo, res.Issues[0].Severity)
}

func TestEmitRecursiveRecord(t *testing.T) {
	s := compile(t, `{
		"$ref": "#/definitions/Node",
		"definitions": {
			"Node": {
				"type": "object",
				"properties": {
					"value": {"type": "string"},
					"children": {"type": "array", "items": {"$ref": "#/definitions/Node"}}
				}
			}
		}
	}`)
	_, out := emitJSON(t, s, WithNamespace("com.example.tree"))
	assert.JSONEq(t, `{
		"type": "record",
		"name": "Node",
		"namespace": "com.example.tree",
		"fields": [
			{"name": "value", "type": "string"},
			{"name": "children", "type": {"type": "array", "items": "com.example.tree.Node"}}
		]
	}`, out)
}

func TestEmitSharedTypeByName(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"title": "Order",
		"properties": {
			"billing": {"$ref": "#/definitions/Address"},
			"shipping": {"$ref": "#/definitions/Address"}
		},
		"definitions": {"Address": {"type": "object", "properties": {"street": {"type": "string"}}}}
	}`)
	_, out := emitJSON(t, s)
	assert.JSONEq(t, `{
		"type": "record",
		"name": "Order",
		"fields": [
			{"name": "billing", "type": {"type": "record", "name": "Address", "fields": [{"name": "street", "type": "string"}]}},
			{"name": "shipping", "type": "Address"}
		]
	}`, out)
}

func TestEmitUnionsAndNullable(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"title": "User",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"},
			"nickname": {"type": ["string", "null"], "maxLength": 5},
			"age": {"type": ["null", "integer"]},
			"email": {"type": "string"},
			"deleted": {"type": "null"}
		}
	}`)
	_, out := emitJSON(t, s)
	assert.JSONEq(t, `{
		"type": "record",
		"name": "User",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "nickname", "type": ["string", "null"]},
			{"name": "age", "type": ["null", "int"]},
			{"name": "email", "type": "string"},
			{"name": "deleted", "type": "null"}
		]
	}`, out)

	_, out = emitJSON(t, s, WithOptionalNullable(true))
	assert.JSONEq(t, `{
		"type": "record",
		"name": "User",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "nickname", "type": ["null", "string"], "default": null},
			{"name": "age", "type": ["null", "int"], "default": null},
			{"name": "email", "type": ["null", "string"], "default": null},
			{"name": "deleted", "type": "null", "default": null}
		]
	}`, out)
}

func TestEmitEnums(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"title": "Pet",
		"properties": {
			"status": {"type": "string", "enum": ["available", "pending", "sold"], "description": "pet status"},
			"color": {"enum": ["light-blue", "dark red"]},
			"size": {"type": "string", "enum": ["x-large", "small"]},
			"level": {"enum": [1, 2, 3]},
			"ratio": {"enum": [1, 2.5]},
			"flag": {"const": true},
			"anything": {"description": "no type"}
		}
	}`)
	res, out := emitJSON(t, s)
	assert.JSONEq(t, `{
		"type": "record",
		"name": "Pet",
		"fields": [
			{"name": "status", "doc": "pet status", "type": {"type": "enum", "name": "Status", "doc": "pet status", "symbols": ["available", "pending", "sold"]}},
			{"name": "color", "type": {"type": "enum", "name": "Color", "symbols": ["light_blue", "dark_red"]}},
			{"name": "size", "type": {"type": "enum", "name": "Size", "symbols": ["x_large", "small"]}},
			{"name": "level", "type": "long"},
			{"name": "ratio", "type": "double"},
			{"name": "flag", "type": "boolean"},
			{"name": "anything", "doc": "no type", "type": "string"}
		]
	}`, out)

	var warnings []string
	for _, iss := range res.Issues {
		if iss.Severity == severity.SeverityWarning {
			warnings = append(warnings, iss.Message)
		}
	}
	assert.Len(t, warnings, 4, "three renamed symbols and one untyped schema")
	assert.Contains(t, warnings, `literal "x-large" emitted as symbol "x_large"`)
}

func TestEmitArrays(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"title": "Doc",
		"properties": {
			"photo_urls": {"type": "array", "items": {"type": "object", "properties": {"url": {"type": "string"}}}},
			"pair": {"type": "array", "items": [{"type": "string"}, {"type": "integer"}, {"type": "string"}]},
			"bag": {"type": "array"}
		}
	}`)
	res, out := emitJSON(t, s)
	assert.JSONEq(t, `{
		"type": "record",
		"name": "Doc",
		"fields": [
			{"name": "photo_urls", "type": {"type": "array", "items": {"type": "record", "name": "PhotoUrlsItem", "fields": [{"name": "url", "type": "string"}]}}},
			{"name": "pair", "type": {"type": "array", "items": ["string", "int"]}},
			{"name": "bag", "type": {"type": "array", "items": "string"}}
		]
	}`, out)
	assert.Len(t, res.Issues, 3, "duplicate tuple branch, tuple union and untyped items")
}

func TestEmitNaming(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"properties": {
			"a": {"type": "object", "title": "Thing"},
			"b": {"type": "object", "title": "Thing"},
			"2fa-settings": {"type": "object", "title": "Settings"}
		}
	}`)
	res, out := emitJSON(t, s, WithRootName("Account"))
	assert.JSONEq(t, `{
		"type": "record",
		"name": "Account",
		"fields": [
			{"name": "a", "type": {"type": "record", "name": "Thing", "fields": []}},
			{"name": "b", "type": {"type": "record", "name": "Thing2", "fields": []}},
			{"name": "_2fa_settings", "type": {"type": "record", "name": "Settings", "fields": []}}
		]
	}`, out)
	require.Len(t, res.Issues, 1)
	assert.Contains(t, res.Issues[0].Message, `"2fa-settings"`)

	s = compile(t, `{"type": "object"}`)
	_, out = emitJSON(t, s)
	assert.JSONEq(t, `{"type": "record", "name": "Record", "fields": []}`, out)
}

func TestEmitPrimitiveRoot(t *testing.T) {
	s := compile(t, `{"type": "integer"}`)
	res, err := Emit(s.Graph, s.Root)
	require.NoError(t, err)
	assert.Equal(t, "int", res.Schema)
	out, err := j.Marshal(res.Schema)
	require.NoError(t, err)
	assert.NoError(t, Check(out))
}

func TestEmitErrors(t *testing.T) {
	s := compile(t, `{"type": "object", "properties": {"x": {"$ref": "#/definitions/X"}}, "definitions": {"X": {"type": "string"}}}`, schema.WithoutResolve())
	_, err := Emit(s.Graph, s.Root)
	assert.ErrorIs(t, err, schemaerrors.ErrReference)

	loop := compile(t, `{"$ref": "#/definitions/L", "definitions": {"L": {"type": "array", "items": {"$ref": "#/definitions/L"}}}}`)
	_, err = Emit(loop.Graph, loop.Root)
	assert.ErrorIs(t, err, schemaerrors.ErrUnsupportedType)

	_, err = Emit(nil, 0)
	assert.Error(t, err)
	_, err = Emit(s.Graph, 99)
	assert.Error(t, err)
	_, err = Emit(s.Graph, s.Root, WithNamespace("com.1bad"))
	assert.Error(t, err)
	_, err = Emit(s.Graph, s.Root, WithRootName("has space"))
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check([]byte(`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}]}`)))
	assert.Error(t, Check([]byte(`{"type": "record", "fields": []}`)))
	assert.Error(t, Check([]byte(`{"type": "nope"}`)))
}

func TestTypeName(t *testing.T) {
	tests := map[string]string{
		"photo_urls":     "PhotoUrls",
		"owner-info":     "OwnerInfo",
		"alreadyPascal":  "AlreadyPascal",
		"Response[User]": "Response_User_",
		"élan":           "_lan",
	}
	for in, want := range tests {
		assert.Equal(t, want, typeName(in), in)
	}
}
