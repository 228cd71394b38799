package openapi

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/internal/issues"
	"github.com/erraggy/aptos/schema"
	"github.com/erraggy/aptos/schemaerrors"
)

// ErrNotFound indicates that no operation, response or schema matches a
// lookup.
var ErrNotFound = errors.New("openapi: not found")

// maxResponseRefs bounds chains of response $refs.
const maxResponseRefs = 16

// Definition is a named schema of the document.
type Definition struct {
	Name string
	ID   schema.ID
}

// Document is a loaded Swagger 2.0 or OpenAPI 3.x document.
type Document struct {
	// Version is the "swagger" or "openapi" field, e.g. "2.0" or "3.0.3".
	Version string
	// Graph holds the nodes of every schema built from the document.
	Graph *schema.Graph
	// Definitions lists the named schemas in document order.
	Definitions []Definition

	mu       sync.Mutex
	raw      any
	v3       bool
	docName  string
	builder  *schema.Builder
	resolver *schema.Resolver
	paths    templates
	order    []string
	bases    []string
	logger   schema.Logger
}

// Load builds the named schemas of raw, a parsed Swagger 2.0 or OpenAPI 3.x
// document.
func Load(raw any, opts ...Option) (*Document, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, err
	}
	root, ok := raw.(*document.Map)
	if !ok {
		return nil, &schemaerrors.ParseError{Message: "document must be an object"}
	}
	d := &Document{raw: raw, docName: cfg.docName, logger: cfg.logger}
	if err := d.detect(root); err != nil {
		return nil, err
	}

	schemaOpts, err := d.schemaOptions(cfg)
	if err != nil {
		return nil, err
	}
	d.Graph = schema.NewGraph()
	if d.builder, err = schema.NewBuilder(d.Graph, schemaOpts...); err != nil {
		return nil, err
	}
	if d.resolver, err = schema.NewResolver(d.builder, raw, schemaOpts...); err != nil {
		return nil, err
	}

	if err := d.loadPaths(root); err != nil {
		return nil, err
	}
	d.bases = basePaths(root)
	if err := d.loadDefinitions(); err != nil {
		return nil, err
	}
	d.logger.Debug("openapi document loaded",
		"version", d.Version,
		"definitions", len(d.Definitions),
		"paths", len(d.order))
	return d, nil
}

// LoadFile loads the document at path. External references resolve
// relative to the file's directory.
func LoadFile(path string, opts ...Option) (*Document, error) {
	raw, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	var defaults []Option
	if path != document.StdinPath {
		defaults = append(defaults, WithBaseDir(filepath.Dir(path)), WithDocName(filepath.Base(path)))
	}
	return Load(raw, append(defaults, opts...)...)
}

func (d *Document) detect(root *document.Map) error {
	if v, ok := root.Get("swagger"); ok {
		if s := versionString(v); s == "2.0" || s == "2" {
			d.Version = "2.0"
			return nil
		}
		return &schemaerrors.ParseError{Path: "/swagger", Message: fmt.Sprintf("unsupported Swagger version %v", v)}
	}
	if v, ok := root.Get("openapi"); ok {
		if s := versionString(v); strings.HasPrefix(s, "3.") {
			d.Version = s
			d.v3 = true
			return nil
		}
		return &schemaerrors.ParseError{Path: "/openapi", Message: fmt.Sprintf("unsupported OpenAPI version %v", v)}
	}
	return &schemaerrors.ParseError{Message: `document has neither a "swagger" nor an "openapi" field`}
}

func versionString(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func (d *Document) schemaOptions(cfg *config) ([]schema.Option, error) {
	var opts []schema.Option
	// Swagger 2.0 allows "type": "file" for upload and download bodies.
	regOpts := []schema.RegistryOption{schema.RegistryStrict(cfg.strict)}
	if !d.v3 {
		regOpts = append(regOpts, schema.WithTypeAlias("file", schema.KindString))
	}
	reg, err := schema.NewRegistry(regOpts...)
	if err != nil {
		return nil, err
	}
	opts = append(opts, schema.WithRegistry(reg), schema.WithLogger(cfg.logger))
	opts = append(opts, cfg.schemaOpts...)
	opts = append(opts, schema.WithDocName(cfg.docName))
	if cfg.baseDir != "" {
		opts = append(opts, schema.WithBaseDir(cfg.baseDir))
	}
	return opts, nil
}

func (d *Document) loadPaths(root *document.Map) error {
	v, ok := root.Get("paths")
	if !ok {
		return nil
	}
	paths, ok := v.(*document.Map)
	if !ok {
		return &schemaerrors.ParseError{Path: "/paths", Message: "paths must be an object"}
	}
	var order []string
	for _, p := range paths.Keys() {
		if strings.HasPrefix(p, "x-") {
			continue
		}
		order = append(order, p)
	}
	set, err := compileTemplates(order)
	if err != nil {
		return &schemaerrors.ParseError{Path: "/paths", Message: "invalid path template", Cause: err}
	}
	d.paths, d.order = set, order
	return nil
}

// basePaths returns the path prefixes request paths may carry.
func basePaths(root *document.Map) []string {
	var out []string
	add := func(p string) {
		p = strings.TrimSuffix(p, "/")
		if p != "" {
			out = append(out, p)
		}
	}
	if v, ok := root.Get("basePath"); ok {
		if s, ok := v.(string); ok {
			add(s)
		}
	}
	if v, ok := root.Get("servers"); ok {
		servers, _ := v.([]any)
		for _, s := range servers {
			m, ok := s.(*document.Map)
			if !ok {
				continue
			}
			raw, _ := m.Get("url")
			str, _ := raw.(string)
			if u, err := url.Parse(str); err == nil {
				add(u.Path)
			}
		}
	}
	return out
}

func (d *Document) definitionsPointer() []string {
	if d.v3 {
		return []string{"components", "schemas"}
	}
	return []string{"definitions"}
}

func (d *Document) loadDefinitions() error {
	segs := d.definitionsPointer()
	v, ok := document.Lookup(d.raw, document.JoinPointer(segs...))
	if !ok {
		return nil
	}
	defs, ok := v.(*document.Map)
	if !ok {
		return &schemaerrors.ParseError{Path: document.JoinPointer(segs...), Message: "named schemas must be an object"}
	}
	for _, name := range defs.Keys() {
		raw, _ := defs.Get(name)
		id, err := d.build(raw, document.JoinPointer(append(segs, name)...))
		if err != nil {
			return err
		}
		d.Definitions = append(d.Definitions, Definition{Name: name, ID: id})
	}
	return nil
}

func (d *Document) build(raw any, pointer string) (schema.ID, error) {
	id, err := d.builder.BuildAt(raw, schema.Location{Doc: d.docName, Pointer: pointer})
	if err != nil {
		return schema.NoID, err
	}
	return d.resolver.Resolve(id)
}

func (d *Document) schemaOf(id schema.ID) *schema.Schema {
	return &schema.Schema{Graph: d.Graph, Root: id, Issues: d.builder.Issues()}
}

// Definition returns the named schema called name.
func (d *Document) Definition(name string) (*schema.Schema, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, def := range d.Definitions {
		if def.Name == name {
			return d.schemaOf(def.ID), true
		}
	}
	return nil, false
}

// Issues returns the non-fatal notes collected while building schemas.
func (d *Document) Issues() []issues.Issue {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.builder.Issues()
}

// Paths returns the path templates in document order.
func (d *Document) Paths() []string { return d.order }

// Match returns the path template matching a request path or URL, with the
// values of its parameters.
func (d *Document) Match(path string) (template string, params map[string]string, ok bool) {
	for _, p := range d.candidates(path) {
		if t, params, ok := d.paths.match(p); ok {
			return t.path, params, true
		}
	}
	return "", nil, false
}

// candidates returns path with and without each known base path.
func (d *Document) candidates(path string) []string {
	if u, err := url.Parse(path); err == nil {
		if u.Scheme != "" || u.RawQuery != "" || u.Fragment != "" {
			path = u.Path
		}
	}
	if path == "" {
		path = "/"
	}
	out := []string{path}
	for _, base := range d.bases {
		if rest, ok := strings.CutPrefix(path, base); ok && strings.HasPrefix(rest, "/") {
			out = append(out, rest)
		}
	}
	return out
}

// ResponseSchema returns the schema of the response body an operation
// sends with the given status. path is a request path or URL; a path
// template from the document matches itself.
func (d *Document) ResponseSchema(method string, status int, path string) (*schema.Schema, error) {
	tmpl, _, ok := d.Match(path)
	if !ok {
		return nil, fmt.Errorf("%w: no path template matches %q", ErrNotFound, path)
	}
	method = strings.ToLower(method)
	opPtr := document.JoinPointer("paths", tmpl, method)
	if _, ok := document.Lookup(d.raw, opPtr); !ok {
		return nil, fmt.Errorf("%w: no %s operation for %s", ErrNotFound, strings.ToUpper(method), tmpl)
	}

	respPtr, err := d.response(opPtr, status)
	if err != nil {
		return nil, err
	}
	schemaPtr, err := d.bodySchema(respPtr)
	if err != nil {
		return nil, err
	}
	raw, _ := document.Lookup(d.raw, schemaPtr)

	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.build(raw, schemaPtr)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("response schema selected",
		"method", strings.ToUpper(method),
		"template", tmpl,
		"status", status,
		"schema", schemaPtr)
	return d.schemaOf(id), nil
}

// response finds the response object for status under the operation at
// opPtr and returns its pointer, following local $refs.
func (d *Document) response(opPtr string, status int) (string, error) {
	v, ok := document.Lookup(d.raw, opPtr+"/responses")
	responses, _ := v.(*document.Map)
	if !ok || responses == nil {
		return "", fmt.Errorf("%w: operation %s has no responses", ErrNotFound, opPtr)
	}
	code := strconv.Itoa(status)
	key := ""
	switch {
	case responses.Has(code):
		key = code
	case len(code) == 3 && responses.Has(code[:1]+"XX"):
		key = code[:1] + "XX"
	case len(code) == 3 && responses.Has(code[:1]+"xx"):
		key = code[:1] + "xx"
	case responses.Has("default"):
		key = "default"
	default:
		return "", fmt.Errorf("%w: no response for status %d", ErrNotFound, status)
	}

	ptr := opPtr + document.JoinPointer("responses", key)
	for range maxResponseRefs {
		v, _ := document.Lookup(d.raw, ptr)
		m, ok := v.(*document.Map)
		if !ok {
			return "", &schemaerrors.ParseError{Path: ptr, Message: "response must be an object"}
		}
		ref, ok := m.Get("$ref")
		if !ok {
			return ptr, nil
		}
		s, _ := ref.(string)
		if !strings.HasPrefix(s, "#") {
			return "", &schemaerrors.ReferenceError{Ref: s, RefType: "file", Message: "only local response references are supported"}
		}
		segs, err := document.SplitPointer(s)
		if err != nil {
			return "", &schemaerrors.ReferenceError{Ref: s, RefType: "local", Cause: err}
		}
		ptr = document.JoinPointer(segs...)
		if _, ok := document.Lookup(d.raw, ptr); !ok {
			return "", &schemaerrors.ReferenceError{Ref: s, RefType: "local", Message: "target not found"}
		}
	}
	return "", &schemaerrors.ReferenceError{Ref: ptr, RefType: "local", IsCircular: true}
}

// bodySchema returns the pointer of the schema of the response at respPtr.
func (d *Document) bodySchema(respPtr string) (string, error) {
	if !d.v3 {
		ptr := respPtr + "/schema"
		if _, ok := document.Lookup(d.raw, ptr); !ok {
			return "", fmt.Errorf("%w: response %s has no schema", ErrNotFound, respPtr)
		}
		return ptr, nil
	}
	v, _ := document.Lookup(d.raw, respPtr+"/content")
	content, _ := v.(*document.Map)
	if content == nil {
		return "", fmt.Errorf("%w: response %s has no content", ErrNotFound, respPtr)
	}
	mt := jsonMediaType(content.Keys())
	if mt == "" {
		return "", fmt.Errorf("%w: response %s has no JSON content", ErrNotFound, respPtr)
	}
	ptr := respPtr + document.JoinPointer("content", mt, "schema")
	if _, ok := document.Lookup(d.raw, ptr); !ok {
		return "", fmt.Errorf("%w: response %s has no schema for %s", ErrNotFound, respPtr, mt)
	}
	return ptr, nil
}

// jsonMediaType picks application/json, then any JSON-suffixed type, then
// a wildcard.
func jsonMediaType(types []string) string {
	for _, t := range types {
		if mediaBase(t) == "application/json" {
			return t
		}
	}
	for _, t := range types {
		if base := mediaBase(t); strings.HasSuffix(base, "+json") || strings.HasSuffix(base, "/json") {
			return t
		}
	}
	for _, t := range types {
		if base := mediaBase(t); base == "*/*" || base == "application/*" {
			return t
		}
	}
	return ""
}

func mediaBase(t string) string {
	base, _, _ := strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
