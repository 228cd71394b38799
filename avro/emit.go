package avro

import (
	"fmt"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/internal/issues"
	"github.com/erraggy/aptos/internal/jsonvalue"
	"github.com/erraggy/aptos/internal/severity"
	"github.com/erraggy/aptos/schema"
	"github.com/erraggy/aptos/schemaerrors"
)

// emitter is one emission pass. It implements schema.Visitor with the
// name hint as argument.
type emitter struct {
	g     *schema.Graph
	root  schema.ID
	cfg   *config
	names *names

	// emitted maps named nodes to the full name they were emitted under.
	emitted map[schema.ID]string
	// active holds unnamed nodes on the current path.
	active map[schema.ID]bool

	issues []issues.Issue
	err    error
}

var _ schema.Visitor[string, any] = (*emitter)(nil)

func newEmitter(g *schema.Graph, root schema.ID, cfg *config) *emitter {
	return &emitter{
		g:       g,
		root:    root,
		cfg:     cfg,
		names:   newNames(),
		emitted: make(map[schema.ID]string),
		active:  make(map[schema.ID]bool),
	}
}

func (e *emitter) emit(id schema.ID, hint string) any {
	if e.err != nil {
		return nil
	}
	if name, ok := e.emitted[id]; ok {
		return name
	}
	if e.active[id] {
		e.err = &schemaerrors.UnsupportedTypeError{
			Path: e.g.Location(id).String(),
			Type: "recursive " + e.g.Kind(id).String() + " without a named type",
		}
		return nil
	}
	e.active[id] = true
	defer delete(e.active, id)
	return schema.Accept[string, any](e.g, id, e, hint)
}

func (e *emitter) note(id schema.ID, sev severity.Severity, keyword, msg string) {
	loc := e.g.Location(id)
	e.cfg.logger.Debug(msg, "location", loc)
	e.issues = append(e.issues, issues.Issue{
		Path:     loc.Pointer,
		Doc:      loc.Doc,
		Severity: sev,
		Keyword:  keyword,
		Message:  msg,
	})
}

// nameFor picks the type name: definition name, title, root name option,
// hint, then fallback.
func (e *emitter) nameFor(id schema.ID, b *schema.Base, hint, fallback string) string {
	base := e.g.Name(id)
	if base == "" {
		base = b.Title
	}
	if base == "" && id == e.root {
		base = e.cfg.rootName
	}
	if base == "" {
		base = hint
	}
	name := typeName(base)
	if base == "" || name == "_" {
		name = fallback
	}
	return e.names.claim(name)
}

// header starts a named type and records it as emitted.
func (e *emitter) header(id schema.ID, kind, name string, b *schema.Base) *document.Map {
	m := document.NewMap(6)
	m.Set("type", kind)
	m.Set("name", name)
	full := name
	if e.cfg.namespace != "" {
		m.Set("namespace", e.cfg.namespace)
		full = e.cfg.namespace + "." + name
	}
	if b.Description != "" {
		m.Set("doc", b.Description)
	}
	e.emitted[id] = full
	return m
}

func (e *emitter) VisitObject(id schema.ID, n *schema.Object, hint string) any {
	rec := e.header(id, "record", e.nameFor(id, &n.Base, hint, "Record"), &n.Base)
	if len(n.AllOf) > 0 && !n.MergedAllOf {
		e.note(id, severity.SeverityInfo, "allOf", "allOf branches are not merged into the record")
	}

	fieldNames := newNames()
	fields := make([]any, 0, len(n.Properties))
	for _, p := range n.Properties {
		name := sanitize(p.Name)
		if name != p.Name {
			e.note(p.Node, severity.SeverityWarning, "properties", fmt.Sprintf("property %q emitted as field %q", p.Name, name))
		}
		name = fieldNames.claim(name)

		t := e.emit(p.Node, p.Name)
		if e.err != nil {
			return nil
		}
		f := document.NewMap(4)
		f.Set("name", name)
		if d := e.g.Node(p.Node).Common().Description; d != "" {
			f.Set("doc", d)
		}
		if e.cfg.optionalNullable && !n.IsRequired(p.Name) {
			f.Set("type", nullable(t))
			f.Set("default", nil)
		} else {
			f.Set("type", t)
		}
		fields = append(fields, f)
	}
	rec.Set("fields", fields)
	return rec
}

func (e *emitter) VisitArray(id schema.ID, n *schema.Array, hint string) any {
	itemHint := hint + "Item"
	var items any
	switch {
	case n.IsTuple():
		var alts []any
		for _, t := range n.Tuple {
			alts = e.addAlternative(id, alts, e.emit(t, itemHint))
		}
		if n.AdditionalItemsSchema.Valid() {
			alts = e.addAlternative(id, alts, e.emit(n.AdditionalItemsSchema, itemHint))
		}
		if e.err != nil {
			return nil
		}
		e.note(id, severity.SeverityWarning, "items", "tuple items emitted as a union of their types")
		switch len(alts) {
		case 0:
			items = "null"
		case 1:
			items = alts[0]
		default:
			items = alts
		}
	case n.Items.Valid():
		items = e.emit(n.Items, itemHint)
		if e.err != nil {
			return nil
		}
	default:
		e.note(id, severity.SeverityWarning, "items", "array items unspecified; emitted as string")
		items = "string"
	}
	m := document.NewMap(2)
	m.Set("type", "array")
	m.Set("items", items)
	return m
}

// VisitString emits a string with string literals as an enum, the same way
// VisitEnumerated does.
func (e *emitter) VisitString(id schema.ID, n *schema.String, hint string) any {
	if len(n.Enum) == 0 {
		return "string"
	}
	symbols, ok := stringLiterals(n.Enum)
	if !ok {
		e.note(id, severity.SeverityWarning, "enum", "non-string literals emitted as string")
		return "string"
	}
	return e.enum(id, &n.Base, hint, symbols)
}

func (e *emitter) VisitInteger(_ schema.ID, n *schema.Integer, _ string) any {
	if n.Format == "int64" {
		return "long"
	}
	return "int"
}

func (e *emitter) VisitNumber(_ schema.ID, n *schema.Number, _ string) any {
	if n.Format == "float" {
		return "float"
	}
	return "double"
}

func (e *emitter) VisitBoolean(schema.ID, *schema.Boolean, string) any { return "boolean" }

func (e *emitter) VisitNull(schema.ID, *schema.Null, string) any { return "null" }

func (e *emitter) VisitUnion(id schema.ID, n *schema.Union, hint string) any {
	var alts []any
	for _, alt := range n.Alternatives {
		alts = e.addAlternative(id, alts, e.emit(alt, hint))
	}
	if e.err != nil {
		return nil
	}
	if len(alts) == 1 {
		return alts[0]
	}
	return alts
}

// VisitEnumerated emits string literals as an enum. Other literal sets
// become the primitive they share, and a node without literals becomes a
// string.
func (e *emitter) VisitEnumerated(id schema.ID, n *schema.Enumerated, hint string) any {
	literals := n.Enum
	if len(literals) == 0 && n.HasConst {
		literals = []any{n.Const}
	}
	if len(literals) == 0 {
		e.note(id, severity.SeverityWarning, "enum", "schema without type or literals emitted as string")
		return "string"
	}

	if symbols, ok := stringLiterals(literals); ok {
		return e.enum(id, &n.Base, hint, symbols)
	}

	if t := literalType(literals); t != "" {
		return t
	}
	e.note(id, severity.SeverityWarning, "enum", "mixed literals emitted as string")
	return "string"
}

func (e *emitter) VisitReference(_ schema.ID, n *schema.Reference, _ string) any {
	e.err = &schemaerrors.ReferenceError{
		Ref:     n.Ref,
		Message: "unresolved reference reached during emission",
	}
	return nil
}

// addAlternative appends t to a union, flattening nested unions and
// dropping types Avro would reject as duplicates.
func (e *emitter) addAlternative(id schema.ID, alts []any, t any) []any {
	if nested, ok := t.([]any); ok {
		for _, x := range nested {
			alts = e.addAlternative(id, alts, x)
		}
		return alts
	}
	if t == nil {
		return alts
	}
	k := unionKey(t)
	for _, a := range alts {
		if unionKey(a) == k {
			e.note(id, severity.SeverityWarning, "type", fmt.Sprintf("duplicate union branch %s dropped", k))
			return alts
		}
	}
	return append(alts, t)
}

// unionKey identifies a union branch the way Avro does: by name for named
// types and by type otherwise.
func unionKey(t any) string {
	switch v := t.(type) {
	case string:
		return v
	case *document.Map:
		kind, _ := v.Get("type")
		if name, ok := v.Get("name"); ok {
			if ns, ok := v.Get("namespace"); ok {
				return fmt.Sprintf("%v.%v", ns, name)
			}
			return fmt.Sprint(name)
		}
		return fmt.Sprint(kind)
	}
	return fmt.Sprint(t)
}

func nullable(t any) any {
	if list, ok := t.([]any); ok {
		out := []any{"null"}
		for _, x := range list {
			if x != "null" {
				out = append(out, x)
			}
		}
		return out
	}
	if t == "null" {
		return t
	}
	return []any{"null", t}
}

// enum emits an Avro enum. Literals that are not valid symbols are
// sanitized with a warning; collisions are suffixed.
func (e *emitter) enum(id schema.ID, b *schema.Base, hint string, literals []string) any {
	seen := newNames()
	symbols := make([]any, 0, len(literals))
	for _, s := range literals {
		sym := sanitize(s)
		if sym != s {
			e.note(id, severity.SeverityWarning, "enum", fmt.Sprintf("literal %q emitted as symbol %q", s, sym))
		}
		symbols = append(symbols, seen.claim(sym))
	}
	m := e.header(id, "enum", e.nameFor(id, b, hint, "Enum"), b)
	m.Set("symbols", symbols)
	return m
}

func stringLiterals(list []any) ([]string, bool) {
	out := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// literalType returns the Avro primitive every literal fits: "long" for
// integers, "double" for any mix of numbers, "boolean" for booleans.
// It returns "" for anything else.
func literalType(list []any) string {
	ints, nums, bools := 0, 0, 0
	for _, v := range list {
		switch jsonvalue.KindOf(v) {
		case jsonvalue.Integer:
			ints++
			nums++
		case jsonvalue.Float:
			nums++
		case jsonvalue.Boolean:
			bools++
		}
	}
	switch len(list) {
	case ints:
		return "long"
	case nums:
		return "double"
	case bools:
		return "boolean"
	}
	return ""
}
