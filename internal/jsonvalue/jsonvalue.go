// Package jsonvalue decodes JSON instances and classifies generic values
// into the JSON kinds the validator dispatches on.
package jsonvalue

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"

	j "github.com/goccy/go-json"

	"github.com/erraggy/aptos/document"
)

// Kind is the JSON kind of a value. Integer and Float split JSON numbers by
// their literal form: "1" is Integer, "1.0" and "1e3" are Float.
type Kind int

const (
	Unknown Kind = iota
	Null
	Boolean
	Integer
	Float
	String
	Array
	Object
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Boolean:
		return "boolean"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "unknown"
}

// Decode reads exactly one JSON value from r. Numbers decode as json.Number
// so integer literals keep their precision.
func Decode(r io.Reader) (any, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("jsonvalue: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("jsonvalue: unexpected data after top-level value")
	}
	return v, nil
}

// DecodeBytes is Decode over a byte slice.
func DecodeBytes(b []byte) (any, error) {
	return Decode(bytes.NewReader(b))
}

// KindOf classifies v. Decoded JSON, YAML scalars, *document.Map values and
// ordinary Go slices, maps and numbers are all recognized.
func KindOf(v any) Kind {
	switch n := v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case string:
		return String
	case j.Number:
		if _, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return Integer
		}
		if _, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return Integer
		}
		return Float
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Integer
	case float32, float64:
		return Float
	case []any:
		return Array
	case map[string]any, *document.Map:
		return Object
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return Array
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return Object
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer
	case reflect.Float32, reflect.Float64:
		return Float
	case reflect.String:
		return String
	case reflect.Bool:
		return Boolean
	}
	return Unknown
}

// IsNumber reports whether v is an Integer or Float.
func IsNumber(v any) bool {
	k := KindOf(v)
	return k == Integer || k == Float
}

// Float64 returns the numeric value of v as float64.
func Float64(v any) (float64, bool) {
	switch n := v.(type) {
	case j.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// IsIntegral reports whether v is a number with no fractional part.
func IsIntegral(v any) bool {
	if KindOf(v) == Integer {
		return true
	}
	f, ok := Float64(v)
	return ok && !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// Entries returns the keys and a getter for an object value, keys in
// document order for *document.Map and unspecified order otherwise.
func Entries(v any) (keys []string, get func(string) (any, bool), ok bool) {
	switch m := v.(type) {
	case *document.Map:
		return m.Keys(), m.Get, true
	case map[string]any:
		keys = make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		return keys, func(k string) (any, bool) {
			val, found := m[k]
			return val, found
		}, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		return keys, func(k string) (any, bool) {
			val := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
			if !val.IsValid() {
				return nil, false
			}
			return val.Interface(), true
		}, true
	}
	return nil, nil, false
}

// Items returns the elements of an array value.
func Items(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Equal reports structural equality between two JSON values. Numbers are
// compared by value regardless of representation, objects by key set, and
// arrays element by element.
func Equal(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	numeric := func(k Kind) bool { return k == Integer || k == Float }
	if numeric(ka) && numeric(kb) {
		return numberEqual(a, b)
	}
	if ka != kb {
		return false
	}
	switch ka {
	case Null:
		return true
	case Boolean:
		return reflect.ValueOf(a).Bool() == reflect.ValueOf(b).Bool()
	case String:
		return reflect.ValueOf(a).String() == reflect.ValueOf(b).String()
	case Array:
		as, _ := Items(a)
		bs, _ := Items(b)
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !Equal(as[i], bs[i]) {
				return false
			}
		}
		return true
	case Object:
		akeys, aget, _ := Entries(a)
		bkeys, bget, _ := Entries(b)
		if len(akeys) != len(bkeys) {
			return false
		}
		for _, k := range akeys {
			av, _ := aget(k)
			bv, found := bget(k)
			if !found || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// numberEqual compares two numbers exactly when both fit int64, and by
// float64 value otherwise.
func numberEqual(a, b any) bool {
	ai, aok := asInt64(a)
	bi, bok := asInt64(b)
	if aok && bok {
		return ai == bi
	}
	af, _ := Float64(a)
	bf, _ := Float64(b)
	return af == bf
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case j.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	return 0, false
}
