package schema

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/schemaerrors"
)

const (
	// MaxCachedDocuments is the maximum number of external documents loaded
	// while resolving one graph.
	MaxCachedDocuments = 100

	// MaxFileSize is the maximum size (in bytes) of an external reference file.
	MaxFileSize = 10 * 1024 * 1024
)

// Resolver replaces Reference nodes with the nodes their fragments point
// at. Targets are looked up in the graph by location first and built on
// demand otherwise, so every location is built at most once and recursive
// schemas resolve to cycles in the graph.
type Resolver struct {
	graph    *Graph
	builder  *Builder
	logger   Logger
	baseDir  string
	mainDoc  string
	docs     map[string]any
	resolved map[ID]bool
}

// NewResolver returns a resolver for graphs built by b from the main
// document raw. Only the logger and base directory options apply.
func NewResolver(b *Builder, raw any, opts ...Option) (*Resolver, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("schema: invalid options: %w", err)
	}
	return newResolver(b, raw, cfg), nil
}

func newResolver(b *Builder, raw any, cfg *compileConfig) *Resolver {
	r := &Resolver{
		graph:    b.graph,
		builder:  b,
		logger:   cfg.logger,
		baseDir:  cfg.baseDir,
		mainDoc:  b.docName,
		docs:     map[string]any{b.docName: raw},
		resolved: make(map[ID]bool),
	}
	b.resolve = r.Resolve
	return r
}

// Resolve returns the first non-reference node reached from id and
// resolves every Reference reachable from it, rewriting the slots that
// held them. Resolving an already resolved node is a no-op.
func (r *Resolver) Resolve(id ID) (ID, error) {
	target, err := r.follow(id)
	if err != nil {
		return NoID, err
	}
	if err := r.descend(target); err != nil {
		return NoID, err
	}
	return target, nil
}

// follow walks a chain of references to the node it ends at.
func (r *Resolver) follow(id ID) (ID, error) {
	seen := make(map[ID]bool)
	for {
		ref, ok := r.graph.Node(id).(*Reference)
		if !ok {
			return id, nil
		}
		if seen[id] {
			return NoID, &schemaerrors.ReferenceError{
				Ref:        ref.Ref,
				RefType:    refType(ref.Ref),
				IsCircular: true,
				Message:    "reference chain never reaches a schema",
			}
		}
		seen[id] = true
		next, err := r.target(ref)
		if err != nil {
			return NoID, err
		}
		id = next
	}
}

// descend resolves every child slot below id, depth first in slot order.
func (r *Resolver) descend(id ID) error {
	if r.resolved[id] {
		return nil
	}
	n := r.graph.Node(id)
	if n == nil {
		// still under construction; resolved once its builder returns
		return nil
	}
	r.resolved[id] = true
	slots := Children(n)
	if lo, ok := r.builder.loose[id]; ok {
		// properties of a type-less schema, kept for allOf merging
		for i := range lo.Properties {
			slots = append(slots, &lo.Properties[i].Node)
		}
	}
	for _, slot := range slots {
		t, err := r.follow(*slot)
		if err != nil {
			return err
		}
		*slot = t
		if err := r.descend(t); err != nil {
			return err
		}
	}
	return nil
}

// target returns the node a single reference points at, building it when
// its location has not been built yet.
func (r *Resolver) target(ref *Reference) (ID, error) {
	file, fragment, _ := strings.Cut(ref.Ref, "#")
	kind := refType(ref.Ref)
	if kind == "http" {
		return NoID, &schemaerrors.ReferenceError{
			Ref:     ref.Ref,
			RefType: kind,
			Message: "remote references are not supported",
		}
	}

	doc := ref.Doc
	if file != "" {
		var err error
		if doc, err = r.load(ref, file); err != nil {
			return NoID, err
		}
	}
	segs, err := document.SplitPointer(fragment)
	if err != nil {
		return NoID, &schemaerrors.ReferenceError{Ref: ref.Ref, RefType: kind, Cause: err}
	}
	loc := Location{Doc: doc, Pointer: document.JoinPointer(segs...)}

	if id, ok := r.graph.Lookup(loc); ok {
		r.logger.Debug("reference resolved from cache", "ref", ref.Ref, "location", loc)
		return id, nil
	}
	raw, ok := document.Lookup(r.docs[doc], loc.Pointer)
	if !ok {
		return NoID, &schemaerrors.ReferenceError{
			Ref:     ref.Ref,
			RefType: kind,
			Message: "target not found: " + loc.String(),
		}
	}
	r.logger.Debug("building reference target", "ref", ref.Ref, "location", loc)
	id, err := r.builder.BuildAt(raw, loc)
	if err != nil {
		return NoID, fmt.Errorf("resolving %s: %w", ref.Ref, err)
	}
	return id, nil
}

// load returns the document key for an external file reference, reading
// and parsing the file the first time it is seen. Paths are relative to
// the directory of the referring document and may not leave the base
// directory.
func (r *Resolver) load(ref *Reference, file string) (string, error) {
	dir := ""
	if ref.Doc != r.mainDoc {
		dir = path.Dir(ref.Doc)
	}
	key := path.Clean(path.Join(dir, filepath.ToSlash(file)))
	if key == r.mainDoc {
		return key, nil
	}
	if _, ok := r.docs[key]; ok {
		return key, nil
	}

	absBase, err := filepath.Abs(r.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(absBase, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || filepath.IsAbs(file) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &schemaerrors.ReferenceError{
			Ref:             ref.Ref,
			RefType:         "file",
			IsPathTraversal: true,
		}
	}

	if len(r.docs) > MaxCachedDocuments {
		return "", &schemaerrors.ResourceLimitError{
			ResourceType: "cached_documents",
			Limit:        MaxCachedDocuments,
			Actual:       int64(len(r.docs)),
			Message:      "too many external references",
		}
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", &schemaerrors.ReferenceError{Ref: ref.Ref, RefType: "file", Cause: err}
	}
	if len(data) > MaxFileSize {
		return "", &schemaerrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        MaxFileSize,
			Actual:       int64(len(data)),
			Message:      key,
		}
	}
	v, err := document.Parse(data)
	if err != nil {
		return "", &schemaerrors.ReferenceError{Ref: ref.Ref, RefType: "file", Cause: err}
	}
	r.logger.Debug("loaded external document", "doc", key)
	r.docs[key] = v
	return key, nil
}

// refType classifies a reference as "local", "file" or "http" (any URI
// with a scheme or authority).
func refType(ref string) string {
	switch {
	case strings.HasPrefix(ref, "#"):
		return "local"
	case strings.HasPrefix(ref, "//"):
		return "http"
	}
	if i := strings.Index(ref, ":"); i > 0 {
		if j := strings.IndexAny(ref, "/#?"); j < 0 || i < j {
			return "http"
		}
	}
	return "file"
}
