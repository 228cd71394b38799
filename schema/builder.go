package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/internal/issues"
	"github.com/erraggy/aptos/internal/jsonvalue"
	"github.com/erraggy/aptos/internal/severity"
	"github.com/erraggy/aptos/schemaerrors"
)

// Builder turns raw schemas into nodes of a Graph. It performs no I/O.
type Builder struct {
	graph    *Graph
	registry *Registry
	logger   Logger
	docName  string
	maxDepth int
	depth    int
	issues   []issues.Issue

	// resolve, when set, resolves allOf branches so they can be merged.
	resolve func(ID) (ID, error)

	// loose holds the properties and required names of type-less schemas,
	// which stay Enumerated but can still be merged through allOf.
	loose map[ID]*Object
}

// NewBuilder returns a Builder adding nodes to g. Only the registry,
// strict, logger, doc name and depth options apply.
func NewBuilder(g *Graph, opts ...Option) (*Builder, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("schema: invalid options: %w", err)
	}
	return newBuilder(g, cfg)
}

func newBuilder(g *Graph, cfg *compileConfig) (*Builder, error) {
	reg := cfg.registry
	if reg == nil {
		var err error
		reg, err = NewRegistry(RegistryStrict(cfg.strict))
		if err != nil {
			return nil, err
		}
	}
	return &Builder{
		graph:    g,
		registry: reg,
		logger:   cfg.logger,
		docName:  cfg.docName,
		maxDepth: cfg.maxDepth,
		loose:    make(map[ID]*Object),
	}, nil
}

// Graph returns the graph the builder adds to.
func (b *Builder) Graph() *Graph { return b.graph }

// Issues returns the non-fatal notes collected so far.
func (b *Builder) Issues() []issues.Issue { return b.issues }

// Build builds raw as the root of the main document.
func (b *Builder) Build(raw any) (ID, error) {
	return b.BuildAt(raw, Location{Doc: b.docName})
}

// BuildAt builds raw as the schema found at loc. If a node was already
// built at loc, its ID is returned unchanged.
func (b *Builder) BuildAt(raw any, loc Location) (ID, error) {
	if id, ok := b.graph.Lookup(loc); ok {
		return id, nil
	}
	b.depth++
	defer func() { b.depth-- }()
	if b.depth > b.maxDepth {
		return NoID, &schemaerrors.ResourceLimitError{
			ResourceType: "nesting_depth",
			Limit:        int64(b.maxDepth),
			Actual:       int64(b.depth),
			Message:      "schema nested too deeply at " + loc.String(),
		}
	}

	m, ok := asMap(raw)
	if !ok {
		return NoID, &schemaerrors.ParseError{
			Path:    loc.Pointer,
			Message: fmt.Sprintf("schema must be an object, got %s", jsonvalue.KindOf(raw)),
		}
	}
	kind, ctor, err := b.registry.Create(m, loc)
	if err != nil {
		return NoID, err
	}
	if t, ok := m.Get("type"); ok && kind == KindObject {
		if name, _ := t.(string); name != "" && !b.registry.Known(name) {
			b.fallback(name, loc)
		}
	}

	id := b.graph.reserve(loc)
	n, err := ctor(b, m, loc)
	if err != nil {
		return NoID, err
	}
	b.graph.set(id, n)

	if kind == KindEnum && (m.Has("properties") || m.Has("required")) {
		o := &Object{}
		if err := b.objectFields(o, m, loc); err != nil {
			return NoID, err
		}
		b.loose[id] = o
	}
	return id, nil
}

// fallback records an unknown type name built as an object.
func (b *Builder) fallback(name string, loc Location) {
	b.logger.Debug("unknown type treated as object", "type", name, "location", loc)
	b.issues = append(b.issues, issues.Issue{
		Path:     loc.Pointer,
		Doc:      loc.Doc,
		Severity: severity.SeverityInfo,
		Keyword:  "type",
		Value:    name,
		Message:  fmt.Sprintf("unknown type %q built as object", name),
	})
}

func (b *Builder) warn(loc Location, keyword, msg string) {
	b.logger.Warn(msg, "keyword", keyword, "location", loc)
	b.issues = append(b.issues, issues.Issue{
		Path:     loc.Pointer,
		Doc:      loc.Doc,
		Severity: severity.SeverityWarning,
		Keyword:  keyword,
		Message:  msg,
	})
}

// Constructors, one per kind. Each fills the shared attributes first.

func (b *Builder) object(raw *document.Map, at Location) (Node, error) {
	o := &Object{}
	if err := b.base(&o.Base, raw, at); err != nil {
		return nil, err
	}
	if err := b.objectFields(o, raw, at); err != nil {
		return nil, err
	}
	var err error
	if o.MinProperties, err = count(raw, at, "minProperties"); err != nil {
		return nil, err
	}
	if o.MaxProperties, err = count(raw, at, "maxProperties"); err != nil {
		return nil, err
	}
	o.PatternProperties, _ = raw.Get("patternProperties")
	o.AdditionalProperties, _ = raw.Get("additionalProperties")
	o.Dependencies, _ = raw.Get("dependencies")
	o.PropertyNames, _ = raw.Get("propertyNames")

	if len(o.AllOf) > 0 {
		if err := b.mergeAllOf(o, at); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// objectFields builds "properties" in source order and reads "required".
func (b *Builder) objectFields(o *Object, raw *document.Map, at Location) error {
	if v, ok := raw.Get("properties"); ok {
		props, ok := asMap(v)
		if !ok {
			return keywordError(at, "properties", "must be an object")
		}
		for _, name := range props.Keys() {
			sub, _ := props.Get(name)
			id, err := b.BuildAt(sub, at.Child("properties", name))
			if err != nil {
				return err
			}
			o.Properties = append(o.Properties, Property{Name: name, Node: id})
		}
	}
	if v, ok := raw.Get("required"); ok {
		list, ok := v.([]any)
		if !ok {
			return keywordError(at, "required", "must be an array of strings")
		}
		for _, r := range list {
			name, ok := r.(string)
			if !ok {
				return keywordError(at, "required", "must be an array of strings")
			}
			if !o.IsRequired(name) {
				o.Required = append(o.Required, name)
			}
		}
	}
	return nil
}

// mergeAllOf folds the properties and required names of every allOf branch
// into o. Own properties come first, then branches in order; a later
// definition of a name replaces the earlier one but keeps its position.
// Nothing is merged unless every branch is an object, or a type-less schema,
// whose only constraints are properties and required.
func (b *Builder) mergeAllOf(o *Object, at Location) error {
	branches := make([]*Object, 0, len(o.AllOf))
	for i, id := range o.AllOf {
		if b.resolve != nil {
			rid, err := b.resolve(id)
			if err != nil {
				return err
			}
			o.AllOf[i] = rid
			id = rid
		}
		br, ok := b.mergeable(id)
		if !ok {
			b.logger.Debug("allOf branch not merged", "location", at, "kind", b.graph.Kind(id).String())
			return nil
		}
		if br != nil {
			branches = append(branches, br)
		}
	}
	for _, br := range branches {
		for _, p := range br.Properties {
			o.setProperty(p.Name, p.Node)
		}
		for _, r := range br.Required {
			if !o.IsRequired(r) {
				o.Required = append(o.Required, r)
			}
		}
	}
	o.MergedAllOf = true
	return nil
}

// mergeable reports whether the branch at id can be folded into its parent
// without losing a constraint, and returns the fields to fold. A type-less
// branch with no properties returns a nil Object.
func (b *Builder) mergeable(id ID) (*Object, bool) {
	switch n := b.graph.Node(id).(type) {
	case *Object:
		if len(n.Enum) > 0 || n.HasConst {
			return nil, false
		}
		if n.MinProperties != nil || n.MaxProperties != nil {
			return nil, false
		}
		if len(n.AllOf) > 0 && !n.MergedAllOf {
			return nil, false
		}
		return n, true
	case *Enumerated:
		if len(n.Enum) > 0 || n.HasConst || len(n.AllOf) > 0 {
			return nil, false
		}
		return b.loose[id], true
	}
	return nil, false
}

func (b *Builder) array(raw *document.Map, at Location) (Node, error) {
	a := newArray()
	if err := b.base(&a.Base, raw, at); err != nil {
		return nil, err
	}
	if v, ok := raw.Get("items"); ok {
		if list, isList := v.([]any); isList {
			a.Tuple = make([]ID, 0, len(list))
			for i, item := range list {
				id, err := b.BuildAt(item, at.Child("items", strconv.Itoa(i)))
				if err != nil {
					return nil, err
				}
				a.Tuple = append(a.Tuple, id)
			}
		} else {
			id, err := b.BuildAt(v, at.Child("items"))
			if err != nil {
				return nil, err
			}
			a.Items = id
		}
	}
	if v, ok := raw.Get("additionalItems"); ok {
		switch t := v.(type) {
		case bool:
			a.AdditionalItems = &t
		default:
			id, err := b.BuildAt(v, at.Child("additionalItems"))
			if err != nil {
				return nil, err
			}
			a.AdditionalItemsSchema = id
		}
	}
	var err error
	if a.MinItems, err = count(raw, at, "minItems"); err != nil {
		return nil, err
	}
	if a.MaxItems, err = count(raw, at, "maxItems"); err != nil {
		return nil, err
	}
	if v, ok := raw.Get("uniqueItems"); ok {
		u, ok := v.(bool)
		if !ok {
			return nil, keywordError(at, "uniqueItems", "must be a boolean")
		}
		a.UniqueItems = u
	}
	return a, nil
}

func (b *Builder) str(raw *document.Map, at Location) (Node, error) {
	s := &String{}
	if err := b.base(&s.Base, raw, at); err != nil {
		return nil, err
	}
	var err error
	if s.MinLength, err = count(raw, at, "minLength"); err != nil {
		return nil, err
	}
	if s.MaxLength, err = count(raw, at, "maxLength"); err != nil {
		return nil, err
	}
	if v, ok := raw.Get("pattern"); ok {
		p, ok := v.(string)
		if !ok {
			return nil, keywordError(at, "pattern", "must be a string")
		}
		if _, err := regexp.Compile(p); err != nil {
			b.warn(at, "pattern", fmt.Sprintf("pattern %q is not supported: %v", p, err))
		}
		s.Pattern = p
	}
	return s, nil
}

func (b *Builder) integer(raw *document.Map, at Location) (Node, error) {
	n := &Integer{}
	if err := b.base(&n.Base, raw, at); err != nil {
		return nil, err
	}
	if err := numeric(&n.Numeric, raw, at); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *Builder) number(raw *document.Map, at Location) (Node, error) {
	n := &Number{}
	if err := b.base(&n.Base, raw, at); err != nil {
		return nil, err
	}
	if err := numeric(&n.Numeric, raw, at); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *Builder) boolean(raw *document.Map, at Location) (Node, error) {
	n := &Boolean{}
	return n, b.base(&n.Base, raw, at)
}

func (b *Builder) null(raw *document.Map, at Location) (Node, error) {
	n := &Null{}
	return n, b.base(&n.Base, raw, at)
}

func (b *Builder) enumerated(raw *document.Map, at Location) (Node, error) {
	n := &Enumerated{}
	return n, b.base(&n.Base, raw, at)
}

func (b *Builder) reference(raw *document.Map, at Location) (Node, error) {
	v, _ := raw.Get("$ref")
	ref, ok := v.(string)
	if !ok {
		return nil, keywordError(at, "$ref", "must be a string")
	}
	r, err := NewReference(ref, at.Doc)
	if err != nil {
		return nil, &schemaerrors.ParseError{Path: at.Pointer, Cause: err}
	}
	// Sibling keywords of $ref are ignored, except that definitions next to
	// a reference stay addressable.
	if v, ok := raw.Get("definitions"); ok {
		if err := b.definitions(&r.Base, v, at, "definitions"); err != nil {
			return nil, err
		}
	}
	if v, ok := raw.Get("$defs"); ok {
		if err := b.definitions(&r.Base, v, at, "$defs"); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// unionShared lists keywords that stay on the union itself and are not
// copied onto its string members.
var unionShared = map[string]bool{
	"type": true, "enum": true, "const": true,
	"allOf": true, "anyOf": true, "oneOf": true,
	"definitions": true, "$defs": true,
	"title": true, "description": true, "default": true, "examples": true, "example": true,
}

// union builds one alternative per element of the "type" list. A string
// element is built from the parent's own keywords with "type" narrowed to
// that element; an object element is built as a schema of its own.
func (b *Builder) union(raw *document.Map, at Location) (Node, error) {
	u := &Union{}
	if err := b.base(&u.Base, raw, at); err != nil {
		return nil, err
	}
	t, _ := raw.Get("type")
	for i, elem := range t.([]any) {
		loc := at.Child("type", strconv.Itoa(i))
		switch e := elem.(type) {
		case string:
			id, err := b.member(e, raw, at, loc)
			if err != nil {
				return nil, err
			}
			u.Alternatives = append(u.Alternatives, id)
		default:
			id, err := b.BuildAt(elem, loc)
			if err != nil {
				return nil, err
			}
			u.Alternatives = append(u.Alternatives, id)
		}
	}
	return u, nil
}

// member builds the union alternative for a type name. The node is
// registered at loc while its keyword children are built below parent.
func (b *Builder) member(name string, raw *document.Map, parent, loc Location) (ID, error) {
	if id, ok := b.graph.Lookup(loc); ok {
		return id, nil
	}
	kind, err := b.registry.kindFor(name, loc)
	if err != nil {
		return NoID, err
	}
	if kind == KindObject && !b.registry.Known(name) {
		b.fallback(name, loc)
	}
	narrowed := document.NewMap(raw.Len())
	for _, k := range raw.Keys() {
		if unionShared[k] {
			continue
		}
		v, _ := raw.Get(k)
		narrowed.Set(k, v)
	}
	narrowed.Set("type", name)

	id := b.graph.reserve(loc)
	n, err := b.registry.ctors[kind](b, narrowed, parent)
	if err != nil {
		return NoID, err
	}
	b.graph.set(id, n)
	return id, nil
}

// base reads the attributes shared by every variant.
func (b *Builder) base(n *Base, raw *document.Map, at Location) error {
	if v, ok := raw.Get("definitions"); ok {
		if err := b.definitions(n, v, at, "definitions"); err != nil {
			return err
		}
	}
	if v, ok := raw.Get("$defs"); ok {
		if err := b.definitions(n, v, at, "$defs"); err != nil {
			return err
		}
	}
	if v, ok := raw.Get("enum"); ok {
		list, ok := v.([]any)
		if !ok {
			return keywordError(at, "enum", "must be an array")
		}
		for _, lit := range list {
			n.Enum = appendUnique(n.Enum, lit)
		}
	}
	if v, ok := raw.Get("const"); ok {
		n.Const, n.HasConst = v, true
	}
	var err error
	if n.AllOf, err = b.schemaList(raw, at, "allOf"); err != nil {
		return err
	}
	if n.AnyOf, err = b.schemaList(raw, at, "anyOf"); err != nil {
		return err
	}
	if n.OneOf, err = b.schemaList(raw, at, "oneOf"); err != nil {
		return err
	}
	if n.Title, err = text(raw, at, "title"); err != nil {
		return err
	}
	if n.Description, err = text(raw, at, "description"); err != nil {
		return err
	}
	if n.Format, err = text(raw, at, "format"); err != nil {
		return err
	}
	if v, ok := raw.Get("default"); ok {
		n.Default, n.HasDefault = v, true
	}
	if v, ok := raw.Get("examples"); ok {
		list, ok := v.([]any)
		if !ok {
			return keywordError(at, "examples", "must be an array")
		}
		n.Examples = append(n.Examples, list...)
	}
	if v, ok := raw.Get("example"); ok {
		n.Examples = append(n.Examples, v)
	}
	return nil
}

func (b *Builder) definitions(n *Base, v any, at Location, keyword string) error {
	defs, ok := asMap(v)
	if !ok {
		return keywordError(at, keyword, "must be an object")
	}
	for _, name := range defs.Keys() {
		sub, _ := defs.Get(name)
		id, err := b.BuildAt(sub, at.Child(keyword, name))
		if err != nil {
			return err
		}
		n.Definitions = append(n.Definitions, Definition{Name: name, Node: id})
	}
	return nil
}

func (b *Builder) schemaList(raw *document.Map, at Location, keyword string) ([]ID, error) {
	v, ok := raw.Get(keyword)
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, keywordError(at, keyword, "must be an array of schemas")
	}
	ids := make([]ID, 0, len(list))
	for i, sub := range list {
		id, err := b.BuildAt(sub, at.Child(keyword, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// numeric reads the bounds shared by Integer and Number. Draft-4 boolean
// and draft-6 numeric exclusive bounds are both accepted; when a numeric
// exclusive bound and an inclusive bound are both present, the stricter
// one is kept.
func numeric(n *Numeric, raw *document.Map, at Location) error {
	var err error
	if n.Minimum, err = float(raw, at, "minimum"); err != nil {
		return err
	}
	if n.Maximum, err = float(raw, at, "maximum"); err != nil {
		return err
	}
	if n.MultipleOf, err = float(raw, at, "multipleOf"); err != nil {
		return err
	}
	if n.MultipleOf != nil && *n.MultipleOf <= 0 {
		return keywordError(at, "multipleOf", "must be greater than zero")
	}
	if n.Minimum, n.ExclusiveMinimum, err = exclusive(raw, at, "exclusiveMinimum", n.Minimum, func(a, b float64) bool { return a >= b }); err != nil {
		return err
	}
	if n.Maximum, n.ExclusiveMaximum, err = exclusive(raw, at, "exclusiveMaximum", n.Maximum, func(a, b float64) bool { return a <= b }); err != nil {
		return err
	}
	return nil
}

// exclusive interprets an exclusive bound keyword against the inclusive
// bound. stricter(a, b) reports whether bound a is at least as strict as b.
func exclusive(raw *document.Map, at Location, keyword string, bound *float64, stricter func(a, b float64) bool) (*float64, bool, error) {
	v, ok := raw.Get(keyword)
	if !ok {
		return bound, false, nil
	}
	if flag, isBool := v.(bool); isBool {
		return bound, flag && bound != nil, nil
	}
	f, ok := jsonvalue.Float64(v)
	if !ok {
		return nil, false, keywordError(at, keyword, "must be a boolean or a number")
	}
	if bound != nil && !stricter(f, *bound) {
		return bound, false, nil
	}
	return &f, true, nil
}

// Keyword readers.

func text(raw *document.Map, at Location, keyword string) (string, error) {
	v, ok := raw.Get(keyword)
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", keywordError(at, keyword, "must be a string")
	}
	return s, nil
}

func float(raw *document.Map, at Location, keyword string) (*float64, error) {
	v, ok := raw.Get(keyword)
	if !ok {
		return nil, nil
	}
	f, ok := jsonvalue.Float64(v)
	if !ok {
		return nil, keywordError(at, keyword, "must be a number")
	}
	return &f, nil
}

func count(raw *document.Map, at Location, keyword string) (*int, error) {
	f, err := float(raw, at, keyword)
	if err != nil || f == nil {
		return nil, err
	}
	if *f < 0 || *f != float64(int(*f)) {
		return nil, keywordError(at, keyword, "must be a non-negative integer")
	}
	n := int(*f)
	return &n, nil
}

func keywordError(at Location, keyword, msg string) error {
	return &schemaerrors.ParseError{
		Path:    at.Child(keyword).Pointer,
		Message: keyword + " " + msg,
	}
}

// appendUnique appends v unless an equal literal is already present.
func appendUnique(list []any, v any) []any {
	for _, e := range list {
		if jsonvalue.Equal(e, v) {
			return list
		}
	}
	return append(list, v)
}

// asMap accepts ordered and plain mappings. Plain maps are ordered by key.
func asMap(v any) (*document.Map, bool) {
	switch m := v.(type) {
	case *document.Map:
		return m, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := document.NewMap(len(keys))
		for _, k := range keys {
			out.Set(k, m[k])
		}
		return out, true
	}
	return nil, false
}
