package schema

import (
	"fmt"
	"path/filepath"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/internal/issues"
	"github.com/erraggy/aptos/internal/metaschema"
	"github.com/erraggy/aptos/schemaerrors"
)

// Schema is a built and resolved schema graph.
type Schema struct {
	// Graph holds every node built, including unreachable ones.
	Graph *Graph
	// Root is the compiled schema.
	Root ID
	// Issues lists non-fatal notes from building.
	Issues []issues.Issue
}

// Node returns the root node.
func (s *Schema) Node() Node { return s.Graph.Node(s.Root) }

// Compile builds raw (or the subschema selected by WithPointer) into a
// graph and resolves its references.
//
// Example:
//
//	raw, _ := document.Parse(data)
//	s, err := schema.Compile(raw, schema.WithPointer("/definitions/Pet"))
func Compile(raw any, opts ...Option) (*Schema, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("schema: invalid options: %w", err)
	}

	loc := Location{Doc: cfg.docName}
	target := raw
	if cfg.pointer != "" {
		segs, err := document.SplitPointer(cfg.pointer)
		if err != nil {
			return nil, &schemaerrors.ConfigError{Option: "pointer", Value: cfg.pointer, Cause: err}
		}
		loc.Pointer = document.JoinPointer(segs...)
		v, ok := document.Lookup(raw, loc.Pointer)
		if !ok {
			return nil, &schemaerrors.ConfigError{Option: "pointer", Value: cfg.pointer, Message: "no schema at pointer"}
		}
		target = v
	}

	if cfg.metaSchemaCheck {
		if err := metaschema.Check(target); err != nil {
			return nil, &schemaerrors.ParseError{Path: loc.Pointer, Message: "meta-schema check failed", Cause: err}
		}
	}

	g := NewGraph()
	b, err := newBuilder(g, cfg)
	if err != nil {
		return nil, err
	}
	var res *Resolver
	if !cfg.skipResolve {
		res = newResolver(b, raw, cfg)
	}

	root, err := b.BuildAt(target, loc)
	if err != nil {
		return nil, err
	}
	if res != nil {
		if root, err = res.Resolve(root); err != nil {
			return nil, err
		}
	}
	cfg.logger.Debug("schema compiled", "location", loc, "nodes", g.Len(), "issues", len(b.Issues()))
	return &Schema{Graph: g, Root: root, Issues: b.Issues()}, nil
}

// CompileFile loads the document at path and compiles it. External file
// references resolve relative to the file's directory and the file's base
// name becomes the main document key. Later options override these defaults.
func CompileFile(path string, opts ...Option) (*Schema, error) {
	raw, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	defaults := []Option{}
	if path != document.StdinPath {
		defaults = append(defaults, WithBaseDir(filepath.Dir(path)), WithDocName(filepath.Base(path)))
	}
	return Compile(raw, append(defaults, opts...)...)
}
