package validator

import (
	"strconv"
	"testing"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/internal/jsonvalue"
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

func instance(t *testing.T, src string) any {
	t.Helper()
	v, err := jsonvalue.DecodeBytes([]byte(src))
	require.NoError(t, err)
	return v
}

func check(t *testing.T, s *schema.Schema, src string, opts ...Option) *Result {
	t.Helper()
	res, err := Validate(s, instance(t, src), opts...)
	require.NoError(t, err)
	return res
}

func constraints(res *Result) []string {
	out := make([]string, 0, len(res.Violations))
	for _, v := range res.Violations {
		out = append(out, v.Constraint)
	}
	return out
}

const petSchema = `{
	"type": "object",
	"required": ["name", "photoUrls"],
	"properties": {
		"name": {"type": "string"},
		"photoUrls": {"type": "array", "items": {"type": "string"}}
	}
}`

func TestValidateMissingRequired(t *testing.T) {
	s := compile(t, petSchema)
	res := check(t, s, `{}`)
	assert.False(t, res.Valid)
	require.Len(t, res.Violations, 2)
	assert.Equal(t, []string{"name"}, res.Violations[0].Path)
	assert.Equal(t, []string{"photoUrls"}, res.Violations[1].Path)
	for _, v := range res.Violations {
		assert.Equal(t, "required", v.Constraint)
	}

	err := res.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, schemaerrors.ErrValidation)
	assert.Contains(t, err.Error(), "2 violations")
}

func TestValidateScenarios(t *testing.T) {
	tests := []struct {
		name       string
		schema     string
		instance   string
		constraint string
		expected   any
		actual     any
	}{
		{
			name:       "string too long",
			schema:     `{"type": "string", "maxLength": 5}`,
			instance:   `"hello, world!"`,
			constraint: "maxLength",
			expected:   5,
			actual:     13,
		},
		{
			name:       "too many items",
			schema:     `{"type": "array", "items": {"type": "string"}, "maxItems": 3}`,
			instance:   `["a", "b", "c", "d"]`,
			constraint: "maxItems",
			expected:   3,
			actual:     4,
		},
		{
			name:       "duplicate items",
			schema:     `{"type": "array", "items": {"type": "string"}, "uniqueItems": true}`,
			instance:   `["d", "e", "g", "g"]`,
			constraint: "uniqueItems",
			expected:   true,
			actual:     "g",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := check(t, compile(t, tt.schema), tt.instance)
			assert.False(t, res.Valid)
			require.Len(t, res.Violations, 1)
			v := res.Violations[0]
			assert.Equal(t, tt.constraint, v.Constraint)
			assert.Equal(t, tt.expected, v.Expected)
			assert.Equal(t, tt.actual, v.Actual)
			assert.Empty(t, v.Path)
		})
	}
}

func TestValidateExampleRoundTrip(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"required": ["id", "name"],
		"properties": {
			"id": {"type": "integer", "minimum": 1},
			"name": {"type": "string", "minLength": 1, "pattern": "^[A-Z]"},
			"tags": {"type": "array", "items": {"type": "string"}, "uniqueItems": true},
			"status": {"type": "string", "enum": ["available", "sold"]},
			"weight": {"type": ["number", "null"], "multipleOf": 0.1}
		},
		"example": {"id": 7, "name": "Rex", "tags": ["good", "dog"], "status": "sold", "weight": 12.3}
	}`)
	examples := s.Node().Common().Examples
	require.Len(t, examples, 1)

	res, err := Validate(s, examples[0])
	require.NoError(t, err)
	assert.True(t, res.Valid, "%v", res.Violations)
	assert.NoError(t, res.Err())
}

func TestValidateNestedPaths(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"properties": {
			"owner": {
				"type": "object",
				"properties": {"emails": {"type": "array", "items": {"type": "string", "maxLength": 3}}}
			}
		}
	}`)
	res := check(t, s, `{"owner": {"emails": ["ok", "too long"]}}`)
	require.Len(t, res.Violations, 1)
	v := res.Violations[0]
	assert.Equal(t, []string{"owner", "emails", "1"}, v.Path)
	assert.Equal(t, "/owner/emails/1", v.Pointer())
	assert.Equal(t, "$.owner.emails[1]", v.Location())
}

func TestValidateTypeMismatch(t *testing.T) {
	tests := []struct {
		schema   string
		instance string
		expected string
		actual   string
	}{
		{`{"type": "string"}`, `5`, "string", "integer"},
		{`{"type": "object"}`, `[]`, "object", "array"},
		{`{"type": "array"}`, `{}`, "array", "object"},
		{`{"type": "boolean"}`, `"true"`, "boolean", "string"},
		{`{"type": "null"}`, `0`, "null", "integer"},
		{`{"type": "number"}`, `"1"`, "number", "string"},
		{`{"type": "integer"}`, `null`, "integer", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.schema+" "+tt.instance, func(t *testing.T) {
			res := check(t, compile(t, tt.schema), tt.instance)
			require.Len(t, res.Violations, 1)
			v := res.Violations[0]
			assert.Equal(t, "type", v.Constraint)
			assert.Equal(t, tt.expected, v.Expected)
			assert.Equal(t, tt.actual, v.Actual)
		})
	}
}

func TestValidateNumberAgainstStringKeywords(t *testing.T) {
	s := compile(t, `{"properties": {"name": {"type": "string", "maxLength": 1, "pattern": "^[a-z]+$"}}}`)
	for _, src := range []string{`{"name": 12345}`, `{"name": 1.5}`, `{"name": 1e3}`} {
		t.Run(src, func(t *testing.T) {
			res := check(t, s, src)
			require.Len(t, res.Violations, 1, "%v", res.Violations)
			v := res.Violations[0]
			assert.Equal(t, "type", v.Constraint)
			assert.Equal(t, "string", v.Expected)
			assert.Equal(t, []string{"name"}, v.Path)
		})
	}
}

func TestValidateNumbers(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		instance string
		want     []string
	}{
		{"integral float is an integer", `{"type": "integer"}`, `3.0`, nil},
		{"fraction is not an integer", `{"type": "integer"}`, `3.5`, []string{"type"}},
		{"inclusive minimum", `{"type": "integer", "minimum": 1}`, `1`, nil},
		{"below minimum", `{"type": "integer", "minimum": 1}`, `0`, []string{"minimum"}},
		{"exclusive minimum draft4", `{"type": "number", "minimum": 1, "exclusiveMinimum": true}`, `1`, []string{"exclusiveMinimum"}},
		{"exclusive maximum draft6", `{"type": "number", "exclusiveMaximum": 10}`, `10`, []string{"exclusiveMaximum"}},
		{"above maximum", `{"type": "number", "maximum": 10}`, `10.5`, []string{"maximum"}},
		{"float multipleOf", `{"type": "number", "multipleOf": 0.1}`, `0.3`, nil},
		{"large multipleOf", `{"type": "number", "multipleOf": 0.01}`, `1234567.89`, nil},
		{"not a multiple", `{"type": "integer", "multipleOf": 3}`, `10`, []string{"multipleOf"}},
		{"both bounds", `{"type": "integer", "minimum": 5, "maximum": 1}`, `3`, []string{"minimum", "maximum"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := check(t, compile(t, tt.schema), tt.instance)
			if tt.want == nil {
				assert.True(t, res.Valid, "%v", res.Violations)
				return
			}
			assert.Equal(t, tt.want, constraints(res))
		})
	}
}

func TestValidateStrings(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		instance string
		want     []string
	}{
		{"length counts code points", `{"type": "string", "maxLength": 5}`, `"héllo"`, nil},
		{"emoji is one code point", `{"type": "string", "minLength": 2}`, `"🐕"`, []string{"minLength"}},
		{"pattern searches", `{"type": "string", "pattern": "o+"}`, `"dog food"`, nil},
		{"anchored pattern", `{"type": "string", "pattern": "^o"}`, `"dog"`, []string{"pattern"}},
		{"unsupported pattern is ignored", `{"type": "string", "pattern": "(?<=x)y"}`, `"y"`, nil},
		{"format is an annotation", `{"type": "string", "format": "email"}`, `"nope"`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := check(t, compile(t, tt.schema), tt.instance)
			if tt.want == nil {
				assert.True(t, res.Valid, "%v", res.Violations)
				return
			}
			assert.Equal(t, tt.want, constraints(res))
		})
	}
}

func TestValidateFormatAssertion(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"properties": {
			"email": {"type": "string", "format": "email"},
			"born": {"type": "string", "format": "date"},
			"id": {"type": "string", "format": "uuid"},
			"home": {"type": "string", "format": "uri"},
			"seen": {"type": "string", "format": "date-time"},
			"color": {"type": "string", "format": "hex-color"}
		}
	}`)
	good := `{"email": "a@b.co", "born": "2020-02-29", "id": "123e4567-e89b-12d3-a456-426614174000",
		"home": "https://example.com", "seen": "2024-01-02T03:04:05Z", "color": "nope"}`
	assert.True(t, check(t, s, good, WithFormatAssertion(true)).Valid)

	bad := `{"email": "nope", "born": "2021-02-29", "id": "x", "home": "relative", "seen": "yesterday"}`
	res := check(t, s, bad, WithFormatAssertion(true))
	assert.Len(t, res.Violations, 5)
	for _, v := range res.Violations {
		assert.Equal(t, "format", v.Constraint)
	}
	assert.True(t, check(t, s, bad).Valid)
}

func TestValidateArrays(t *testing.T) {
	tuple := compile(t, `{"type": "array", "items": [{"type": "string"}, {"type": "integer"}], "additionalItems": false}`)
	assert.True(t, check(t, tuple, `["a", 1]`).Valid)
	assert.True(t, check(t, tuple, `["a"]`).Valid)
	assert.Equal(t, []string{"type"}, constraints(check(t, tuple, `[1, 1]`)))
	assert.Equal(t, []string{"additionalItems"}, constraints(check(t, tuple, `["a", 1, true]`)))

	extra := compile(t, `{"type": "array", "items": [{"type": "string"}], "additionalItems": {"type": "boolean"}}`)
	assert.True(t, check(t, extra, `["a", true, false]`).Valid)
	res := check(t, extra, `["a", true, 3]`)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, []string{"2"}, res.Violations[0].Path)

	open := compile(t, `{"type": "array", "items": [{"type": "string"}]}`)
	assert.True(t, check(t, open, `["a", 1, null]`).Valid)

	unique := compile(t, `{"type": "array", "uniqueItems": true}`)
	assert.True(t, check(t, unique, `[1, "1", [1], {"a": 1}]`).Valid)
	assert.Equal(t, []string{"uniqueItems"}, constraints(check(t, unique, `[{"a": [1, 2]}, {"a": [1, 2]}]`)))
	assert.Equal(t, []string{"uniqueItems"}, constraints(check(t, unique, `[1, 1.0]`)))

	bounds := compile(t, `{"type": "array", "minItems": 2}`)
	assert.Equal(t, []string{"minItems"}, constraints(check(t, bounds, `[1]`)))
}

func TestValidateObjects(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"minProperties": 1,
		"maxProperties": 2,
		"properties": {"a": {"type": "string"}},
		"additionalProperties": false
	}`)
	assert.Equal(t, []string{"minProperties"}, constraints(check(t, s, `{}`)))
	assert.Equal(t, []string{"maxProperties"}, constraints(check(t, s, `{"a": "x", "b": 1, "c": 2}`)))
	assert.True(t, check(t, s, `{"b": 1}`).Valid, "unknown keys are not checked")
	assert.Equal(t, []string{"type"}, constraints(check(t, s, `{"a": 1}`)))
}

func TestValidateEnumAndConst(t *testing.T) {
	s := compile(t, `{"enum": [1, "two", [3], {"four": 4}, null]}`)
	for _, ok := range []string{`1`, `1.0`, `"two"`, `[3]`, `{"four": 4.0}`, `null`} {
		assert.True(t, check(t, s, ok).Valid, ok)
	}
	res := check(t, s, `"three"`)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "enum", res.Violations[0].Constraint)
	assert.Equal(t, "three", res.Violations[0].Actual)

	c := compile(t, `{"type": "string", "const": "fixed"}`)
	assert.True(t, check(t, c, `"fixed"`).Valid)
	assert.Equal(t, []string{"const"}, constraints(check(t, c, `"other"`)))

	empty := compile(t, `{"type": "string", "enum": []}`)
	assert.True(t, check(t, empty, `"anything"`).Valid)
}

func TestValidateAllOf(t *testing.T) {
	merged := compile(t, `{
		"type": "object",
		"allOf": [
			{"type": "object", "properties": {"id": {"type": "integer"}}, "required": ["id"]},
			{"type": "object", "properties": {"name": {"type": "string"}}}
		]
	}`)
	res := check(t, merged, `{"name": 5}`)
	assert.Equal(t, []string{"required", "type"}, constraints(res), "merged branches are not checked twice")

	independent := compile(t, `{"type": "string", "allOf": [{"type": "string", "minLength": 2}, {"type": "string", "pattern": "^a"}]}`)
	assert.True(t, check(t, independent, `"ab"`).Valid)
	assert.Equal(t, []string{"minLength", "pattern"}, constraints(check(t, independent, `"b"`)))
}

func TestValidateAllOfBranchConstraintsKept(t *testing.T) {
	bounded := compile(t, `{"type": "object", "allOf": [{"type": "object", "minProperties": 2, "properties": {"a": {"type": "string"}}}]}`)
	res := check(t, bounded, `{}`)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"minProperties"}, constraints(res))
	assert.True(t, check(t, bounded, `{"a": "x", "b": 1}`).Valid)
	assert.Equal(t, []string{"type"}, constraints(check(t, bounded, `{"a": 1, "b": 1}`)))

	unsatisfiable := compile(t, `{"type": "object", "allOf": [{"type": "object", "allOf": [{"type": "object"}, {"type": "string"}]}]}`)
	res = check(t, unsatisfiable, `{}`)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"type"}, constraints(res))
}

func TestValidateRecursiveSchema(t *testing.T) {
	s := compile(t, `{
		"$ref": "#/definitions/Node",
		"definitions": {
			"Node": {
				"type": "object",
				"required": ["value"],
				"properties": {
					"value": {"type": "string"},
					"children": {"type": "array", "items": {"$ref": "#/definitions/Node"}}
				}
			}
		}
	}`)
	assert.True(t, check(t, s, `{"value": "a", "children": [{"value": "b", "children": [{"value": "c"}]}]}`).Valid)

	res := check(t, s, `{"value": "a", "children": [{"children": [{"value": 1}]}]}`)
	require.Len(t, res.Violations, 2)
	assert.Equal(t, "$.children[0].value", res.Violations[0].Location())
	assert.Equal(t, "$.children[0].children[0].value", res.Violations[1].Location())
}

func TestValidateSelfCycleTerminates(t *testing.T) {
	s := compile(t, `{
		"$ref": "#/definitions/A",
		"definitions": {"A": {"type": "string", "allOf": [{"$ref": "#/definitions/A"}]}}
	}`)
	assert.True(t, check(t, s, `"x"`).Valid)
	assert.False(t, check(t, s, `1`).Valid)
}

func TestValidateMaxViolations(t *testing.T) {
	s := compile(t, `{"type": "array", "items": {"type": "string"}}`)
	res := check(t, s, `[1, 2, 3, 4, 5]`, WithMaxViolations(2))
	assert.False(t, res.Valid)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Violations, 2)

	var ve *schemaerrors.ValidationError
	require.ErrorAs(t, res.Err(), &ve)
	assert.True(t, ve.Truncated)

	_, err := New(s.Graph, WithMaxViolations(-1))
	assert.Error(t, err)
}

func TestValidateGraphMisuse(t *testing.T) {
	s := compile(t, `{"type": "array", "items": {"$ref": "#/definitions/S"}, "definitions": {"S": {"type": "string"}}}`, schema.WithoutResolve())
	v, err := New(s.Graph)
	require.NoError(t, err)

	_, err = v.Validate(s.Root, []any{"a"})
	assert.ErrorIs(t, err, schemaerrors.ErrReference)

	res, err := v.Validate(s.Root, []any{})
	require.NoError(t, err, "an empty array never reaches the reference")
	assert.True(t, res.Valid)

	_, err = v.Validate(schema.ID(999), "x")
	assert.Error(t, err)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestValidateAcceptsGoValues(t *testing.T) {
	s := compile(t, petSchema)
	res, err := Validate(s, map[string]any{"name": "Rex", "photoUrls": []string{"a.png"}})
	require.NoError(t, err)
	assert.True(t, res.Valid, "%v", res.Violations)

	raw, err := document.Parse([]byte("name: Rex\nphotoUrls: [a.png, 3]\n"))
	require.NoError(t, err)
	res, err = Validate(s, raw)
	require.NoError(t, err)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "/photoUrls/1", res.Violations[0].Pointer())
}

func TestPatternCacheBounded(t *testing.T) {
	v, err := New(schema.NewGraph())
	require.NoError(t, err)
	for i := 0; i < maxPatternCacheSize+10; i++ {
		ok, err := v.matchPattern("^$|p"+strconv.Itoa(i), "")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.LessOrEqual(t, int(v.patternCount.Load()), maxPatternCacheSize)
}
