package validator

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/erraggy/aptos/internal/jsonvalue"
	"github.com/erraggy/aptos/internal/stringutil"
	"github.com/erraggy/aptos/schema"
	"github.com/erraggy/aptos/schemaerrors"
)

// multipleOfTolerance is the relative tolerance applied to the quotient.
const multipleOfTolerance = 1e-9

// maxSummaryRunes bounds string values copied into violations.
const maxSummaryRunes = 64

// frame is the instance value being checked and its path.
type frame struct {
	path  []string
	value any
}

func (f frame) child(seg string, value any) frame {
	p := make([]string, len(f.path), len(f.path)+1)
	copy(p, f.path)
	return frame{path: append(p, seg), value: value}
}

func (f frame) at(seg string) []string {
	return f.child(seg, nil).path
}

// visitKey identifies a node visited at an instance depth. Seeing the same
// key again on the stack means a cycle that consumes no instance.
type visitKey struct {
	id    schema.ID
	depth int
}

// walk is one validation pass. It implements schema.Visitor.
type walk struct {
	v          *Validator
	active     map[visitKey]bool
	violations []Violation
	truncated  bool
}

var _ schema.Visitor[frame, error] = (*walk)(nil)

func (w *walk) visit(id schema.ID, f frame) error {
	if w.truncated {
		return nil
	}
	key := visitKey{id: id, depth: len(f.path)}
	if w.active[key] {
		return nil
	}
	w.active[key] = true
	defer delete(w.active, key)
	return schema.Accept[frame, error](w.v.graph, id, w, f)
}

func (w *walk) add(v Violation) {
	if limit := w.v.cfg.maxViolations; limit > 0 && len(w.violations) >= limit {
		w.truncated = true
		return
	}
	w.violations = append(w.violations, v)
}

func (w *walk) typeMismatch(f frame, expected string) {
	got := jsonvalue.KindOf(f.value)
	w.add(Violation{
		Path:       f.path,
		Constraint: "type",
		Expected:   expected,
		Actual:     got.String(),
		Message:    fmt.Sprintf("expected type %s but got %s", expected, got),
	})
}

func (w *walk) VisitObject(_ schema.ID, n *schema.Object, f frame) error {
	keys, get, ok := jsonvalue.Entries(f.value)
	if !ok {
		w.typeMismatch(f, "object")
		return nil
	}
	for _, name := range n.Required {
		if _, found := get(name); !found {
			w.add(Violation{
				Path:       f.at(name),
				Constraint: "required",
				Expected:   name,
				Message:    fmt.Sprintf("required property %q is missing", name),
			})
		}
	}
	if n.MinProperties != nil && len(keys) < *n.MinProperties {
		w.add(Violation{
			Path:       f.path,
			Constraint: "minProperties",
			Expected:   *n.MinProperties,
			Actual:     len(keys),
			Message:    fmt.Sprintf("object has %d properties, minimum is %d", len(keys), *n.MinProperties),
		})
	}
	if n.MaxProperties != nil && len(keys) > *n.MaxProperties {
		w.add(Violation{
			Path:       f.path,
			Constraint: "maxProperties",
			Expected:   *n.MaxProperties,
			Actual:     len(keys),
			Message:    fmt.Sprintf("object has %d properties, maximum is %d", len(keys), *n.MaxProperties),
		})
	}
	for _, p := range n.Properties {
		val, found := get(p.Name)
		if !found {
			continue
		}
		if err := w.visit(p.Node, f.child(p.Name, val)); err != nil {
			return err
		}
	}
	return w.shared(&n.Base, f, n.MergedAllOf)
}

func (w *walk) VisitArray(_ schema.ID, n *schema.Array, f frame) error {
	items, ok := jsonvalue.Items(f.value)
	if !ok {
		w.typeMismatch(f, "array")
		return nil
	}
	if n.MinItems != nil && len(items) < *n.MinItems {
		w.add(Violation{
			Path:       f.path,
			Constraint: "minItems",
			Expected:   *n.MinItems,
			Actual:     len(items),
			Message:    fmt.Sprintf("array has %d items, minimum is %d", len(items), *n.MinItems),
		})
	}
	if n.MaxItems != nil && len(items) > *n.MaxItems {
		w.add(Violation{
			Path:       f.path,
			Constraint: "maxItems",
			Expected:   *n.MaxItems,
			Actual:     len(items),
			Message:    fmt.Sprintf("array has %d items, maximum is %d", len(items), *n.MaxItems),
		})
	}
	if n.UniqueItems {
		w.unique(items, f)
	}

	if n.IsTuple() {
		if n.AdditionalItems != nil && !*n.AdditionalItems && len(items) > len(n.Tuple) {
			w.add(Violation{
				Path:       f.path,
				Constraint: "additionalItems",
				Expected:   len(n.Tuple),
				Actual:     len(items),
				Message:    fmt.Sprintf("array has %d items, tuple allows %d", len(items), len(n.Tuple)),
			})
		}
		for i, item := range items {
			var id schema.ID
			switch {
			case i < len(n.Tuple):
				id = n.Tuple[i]
			case n.AdditionalItemsSchema.Valid():
				id = n.AdditionalItemsSchema
			default:
				continue
			}
			if err := w.visit(id, f.child(strconv.Itoa(i), item)); err != nil {
				return err
			}
		}
	} else if n.Items.Valid() {
		for i, item := range items {
			if err := w.visit(n.Items, f.child(strconv.Itoa(i), item)); err != nil {
				return err
			}
		}
	}
	return w.shared(&n.Base, f, false)
}

// unique reports each element equal to an earlier one.
func (w *walk) unique(items []any, f frame) {
	for i := 1; i < len(items); i++ {
		for j := 0; j < i; j++ {
			if jsonvalue.Equal(items[i], items[j]) {
				w.add(Violation{
					Path:       f.path,
					Constraint: "uniqueItems",
					Expected:   true,
					Actual:     summarize(items[i]),
					Message:    fmt.Sprintf("array items %d and %d are equal", j, i),
				})
				break
			}
		}
	}
}

func (w *walk) VisitString(_ schema.ID, n *schema.String, f frame) error {
	s, ok := asString(f.value)
	if !ok {
		w.typeMismatch(f, "string")
		return nil
	}
	length := utf8.RuneCountInString(s)
	if n.MinLength != nil && length < *n.MinLength {
		w.add(Violation{
			Path:       f.path,
			Constraint: "minLength",
			Expected:   *n.MinLength,
			Actual:     length,
			Message:    fmt.Sprintf("string length %d is less than minimum %d", length, *n.MinLength),
		})
	}
	if n.MaxLength != nil && length > *n.MaxLength {
		w.add(Violation{
			Path:       f.path,
			Constraint: "maxLength",
			Expected:   *n.MaxLength,
			Actual:     length,
			Message:    fmt.Sprintf("string length %d exceeds maximum %d", length, *n.MaxLength),
		})
	}
	if n.Pattern != "" {
		matched, err := w.v.matchPattern(n.Pattern, s)
		switch {
		case err != nil:
			// reported as a build issue; the keyword is ignored
			w.v.cfg.logger.Debug("pattern skipped", "pattern", n.Pattern, "error", err)
		case !matched:
			w.add(Violation{
				Path:       f.path,
				Constraint: "pattern",
				Expected:   n.Pattern,
				Actual:     summarize(s),
				Message:    fmt.Sprintf("string does not match pattern %q", n.Pattern),
			})
		}
	}
	if w.v.cfg.formatAssertion && n.Format != "" {
		if ok, known := stringutil.CheckFormat(n.Format, s); known && !ok {
			w.add(Violation{
				Path:       f.path,
				Constraint: "format",
				Expected:   n.Format,
				Actual:     summarize(s),
				Message:    fmt.Sprintf("value is not a valid %s", n.Format),
			})
		}
	}
	return w.shared(&n.Base, f, false)
}

func (w *walk) VisitInteger(_ schema.ID, n *schema.Integer, f frame) error {
	switch jsonvalue.KindOf(f.value) {
	case jsonvalue.Integer:
	case jsonvalue.Float:
		if !jsonvalue.IsIntegral(f.value) {
			w.add(Violation{
				Path:       f.path,
				Constraint: "type",
				Expected:   "integer",
				Actual:     f.value,
				Message:    fmt.Sprintf("value must be an integer, got %v", f.value),
			})
			return nil
		}
	default:
		w.typeMismatch(f, "integer")
		return nil
	}
	w.numeric(&n.Numeric, f)
	return w.shared(&n.Base, f, false)
}

func (w *walk) VisitNumber(_ schema.ID, n *schema.Number, f frame) error {
	if !jsonvalue.IsNumber(f.value) {
		w.typeMismatch(f, "number")
		return nil
	}
	w.numeric(&n.Numeric, f)
	return w.shared(&n.Base, f, false)
}

func (w *walk) numeric(n *schema.Numeric, f frame) {
	x, _ := jsonvalue.Float64(f.value)
	if n.Minimum != nil {
		if n.ExclusiveMinimum && x <= *n.Minimum {
			w.add(Violation{
				Path:       f.path,
				Constraint: "exclusiveMinimum",
				Expected:   *n.Minimum,
				Actual:     f.value,
				Message:    fmt.Sprintf("value %v must be greater than %v", f.value, *n.Minimum),
			})
		} else if !n.ExclusiveMinimum && x < *n.Minimum {
			w.add(Violation{
				Path:       f.path,
				Constraint: "minimum",
				Expected:   *n.Minimum,
				Actual:     f.value,
				Message:    fmt.Sprintf("value %v is less than minimum %v", f.value, *n.Minimum),
			})
		}
	}
	if n.Maximum != nil {
		if n.ExclusiveMaximum && x >= *n.Maximum {
			w.add(Violation{
				Path:       f.path,
				Constraint: "exclusiveMaximum",
				Expected:   *n.Maximum,
				Actual:     f.value,
				Message:    fmt.Sprintf("value %v must be less than %v", f.value, *n.Maximum),
			})
		} else if !n.ExclusiveMaximum && x > *n.Maximum {
			w.add(Violation{
				Path:       f.path,
				Constraint: "maximum",
				Expected:   *n.Maximum,
				Actual:     f.value,
				Message:    fmt.Sprintf("value %v exceeds maximum %v", f.value, *n.Maximum),
			})
		}
	}
	if n.MultipleOf != nil && !isMultiple(x, *n.MultipleOf) {
		w.add(Violation{
			Path:       f.path,
			Constraint: "multipleOf",
			Expected:   *n.MultipleOf,
			Actual:     f.value,
			Message:    fmt.Sprintf("value %v is not a multiple of %v", f.value, *n.MultipleOf),
		})
	}
}

// isMultiple reports whether x/m is within a relative tolerance of an integer.
func isMultiple(x, m float64) bool {
	q := x / m
	if math.IsInf(q, 0) || math.IsNaN(q) {
		return false
	}
	return math.Abs(q-math.Round(q)) <= multipleOfTolerance*math.Max(1, math.Abs(q))
}

func (w *walk) VisitBoolean(_ schema.ID, n *schema.Boolean, f frame) error {
	if jsonvalue.KindOf(f.value) != jsonvalue.Boolean {
		w.typeMismatch(f, "boolean")
		return nil
	}
	return w.shared(&n.Base, f, false)
}

func (w *walk) VisitNull(_ schema.ID, n *schema.Null, f frame) error {
	if jsonvalue.KindOf(f.value) != jsonvalue.Null {
		w.typeMismatch(f, "null")
		return nil
	}
	return w.shared(&n.Base, f, false)
}

func (w *walk) VisitEnumerated(_ schema.ID, n *schema.Enumerated, f frame) error {
	return w.shared(&n.Base, f, false)
}

func (w *walk) VisitReference(_ schema.ID, n *schema.Reference, _ frame) error {
	return &schemaerrors.ReferenceError{
		Ref:     n.Ref,
		Message: "unresolved reference reached during validation",
	}
}

// exactKinds maps instance kinds onto the alternative kind that matches them
// without widening.
var exactKinds = map[jsonvalue.Kind]schema.Kind{
	jsonvalue.Object:  schema.KindObject,
	jsonvalue.Array:   schema.KindArray,
	jsonvalue.String:  schema.KindString,
	jsonvalue.Integer: schema.KindInteger,
	jsonvalue.Float:   schema.KindNumber,
	jsonvalue.Boolean: schema.KindBoolean,
	jsonvalue.Null:    schema.KindNull,
}

func (w *walk) VisitUnion(_ schema.ID, n *schema.Union, f frame) error {
	kind := jsonvalue.KindOf(f.value)
	candidates := w.candidates(n, kind, f.value)
	switch len(candidates) {
	case 0:
		w.add(Violation{
			Path:       f.path,
			Constraint: "union",
			Expected:   w.alternativeKinds(n),
			Actual:     kind.String(),
			Message:    "no union member matches instance kind " + kind.String(),
		})
	case 1:
		if err := w.visit(candidates[0], f); err != nil {
			return err
		}
	default:
		w.add(Violation{
			Path:       f.path,
			Constraint: "union",
			Expected:   w.alternativeKinds(n),
			Actual:     kind.String(),
			Message:    fmt.Sprintf("%d union members match instance kind %s", len(candidates), kind),
		})
	}
	return w.shared(&n.Base, f, false)
}

// candidates returns the alternatives of the first non-empty tier: exact
// kind, numeric widening, then type-less alternatives.
func (w *walk) candidates(n *schema.Union, kind jsonvalue.Kind, value any) []schema.ID {
	var exact, widened, loose []schema.ID
	want, known := exactKinds[kind]
	for _, alt := range n.Alternatives {
		switch ak := w.v.graph.Kind(alt); {
		case known && ak == want:
			exact = append(exact, alt)
		case ak == schema.KindNumber && kind == jsonvalue.Integer,
			ak == schema.KindInteger && kind == jsonvalue.Float && jsonvalue.IsIntegral(value):
			widened = append(widened, alt)
		case ak == schema.KindEnum || ak == schema.KindUnion:
			loose = append(loose, alt)
		}
	}
	switch {
	case len(exact) > 0:
		return exact
	case len(widened) > 0:
		return widened
	}
	return loose
}

func (w *walk) alternativeKinds(n *schema.Union) string {
	names := make([]string, 0, len(n.Alternatives))
	for _, alt := range n.Alternatives {
		names = append(names, w.v.graph.Kind(alt).String())
	}
	return strings.Join(names, " or ")
}

// shared checks enum, const and allOf. allOf is skipped when its branches
// were merged into the node at build time.
func (w *walk) shared(b *schema.Base, f frame, merged bool) error {
	if len(b.Enum) > 0 && !contains(b.Enum, f.value) {
		w.add(Violation{
			Path:       f.path,
			Constraint: "enum",
			Expected:   b.Enum,
			Actual:     summarize(f.value),
			Message:    "value is not one of the allowed values",
		})
	}
	if b.HasConst && !jsonvalue.Equal(b.Const, f.value) {
		w.add(Violation{
			Path:       f.path,
			Constraint: "const",
			Expected:   b.Const,
			Actual:     summarize(f.value),
			Message:    "value does not equal the constant",
		})
	}
	if merged {
		return nil
	}
	for _, id := range b.AllOf {
		if err := w.visit(id, f); err != nil {
			return err
		}
	}
	return nil
}

func contains(list []any, v any) bool {
	for _, e := range list {
		if jsonvalue.Equal(e, v) {
			return true
		}
	}
	return false
}

// asString accepts string values only. json.Number is string-backed and is
// rejected here because KindOf classifies it as a number.
func asString(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	if jsonvalue.KindOf(v) != jsonvalue.String {
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// summarize shortens a value for reporting: long strings are cut and
// containers are described by size.
func summarize(v any) any {
	switch jsonvalue.KindOf(v) {
	case jsonvalue.String:
		s, _ := asString(v)
		if utf8.RuneCountInString(s) > maxSummaryRunes {
			return string([]rune(s)[:maxSummaryRunes]) + "..."
		}
		return s
	case jsonvalue.Array:
		items, _ := jsonvalue.Items(v)
		return fmt.Sprintf("array of %d items", len(items))
	case jsonvalue.Object:
		keys, _, _ := jsonvalue.Entries(v)
		return fmt.Sprintf("object with %d properties", len(keys))
	}
	return v
}
