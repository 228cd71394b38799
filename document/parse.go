package document

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/erraggy/aptos/schemaerrors"
	"go.yaml.in/yaml/v4"
)

// StdinPath is the path that makes Load read from standard input.
const StdinPath = "-"

// MaxSize bounds the number of bytes Load reads from one source.
const MaxSize = 64 << 20

// Load reads and parses the JSON or YAML document at path.
func Load(path string) (any, error) {
	var (
		r    io.Reader
		name = path
	)
	if path == StdinPath {
		r = os.Stdin
		name = "<stdin>"
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("document: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("document: reading %s: %w", name, err)
	}
	if len(data) > MaxSize {
		return nil, &schemaerrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        MaxSize,
			Actual:       int64(len(data)),
			Message:      name,
		}
	}
	v, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("document: %s: %w", name, err)
	}
	return v, nil
}

// Parse decodes JSON or YAML bytes, keeping mapping key order.
// Empty input parses to nil.
func Parse(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &schemaerrors.ParseError{Message: "invalid JSON or YAML", Cause: err}
	}
	if root.Kind == 0 {
		return nil, nil
	}
	return fromNode(&root)
}

// fromNode converts a yaml.Node tree to plain values with *Map mappings.
func fromNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromNode(node.Content[0])

	case yaml.MappingNode:
		m := NewMap(len(node.Content) / 2)
		// Content alternates: key, value, key, value...
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if keyNode.Kind == yaml.ScalarNode && keyNode.Tag == "!!merge" {
				if err := mergeInto(m, valNode); err != nil {
					return nil, err
				}
				continue
			}
			v, err := fromNode(valNode)
			if err != nil {
				return nil, err
			}
			m.Set(keyNode.Value, v)
		}
		return m, nil

	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := fromNode(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.AliasNode:
		if node.Alias == nil {
			return nil, nil
		}
		return fromNode(node.Alias)

	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, &schemaerrors.ParseError{
				Message: fmt.Sprintf("line %d, column %d: bad scalar %q", node.Line, node.Column, node.Value),
				Cause:   err,
			}
		}
		return v, nil
	}
	return nil, &schemaerrors.ParseError{Message: fmt.Sprintf("unsupported YAML node kind %d", node.Kind)}
}

// mergeInto applies a YAML merge key ("<<") without overriding existing keys.
func mergeInto(m *Map, node *yaml.Node) error {
	sources := []*yaml.Node{node}
	if node.Kind == yaml.SequenceNode {
		sources = node.Content
	}
	for _, src := range sources {
		v, err := fromNode(src)
		if err != nil {
			return err
		}
		sm, ok := v.(*Map)
		if !ok {
			return &schemaerrors.ParseError{Message: "merge key value must be a mapping"}
		}
		for _, k := range sm.Keys() {
			if !m.Has(k) {
				val, _ := sm.Get(k)
				m.Set(k, val)
			}
		}
	}
	return nil
}

// Plain converts *Map values (at any depth) into map[string]any.
func Plain(v any) any {
	switch t := v.(type) {
	case *Map:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			out[k] = Plain(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Plain(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Plain(val)
		}
		return out
	}
	return v
}

// Lookup walks a JSON pointer (RFC 6901, optionally percent-encoded as in
// a URI fragment) through v. The empty pointer and "/" address v itself.
func Lookup(v any, pointer string) (any, bool) {
	segs, err := SplitPointer(pointer)
	if err != nil {
		return nil, false
	}
	cur := v
	for _, seg := range segs {
		switch t := cur.(type) {
		case *Map:
			next, ok := t.Get(seg)
			if !ok {
				return nil, false
			}
			cur = next
		case map[string]any:
			next, ok := t[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(t) {
				return nil, false
			}
			cur = t[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// SplitPointer splits a JSON pointer into unescaped segments.
// Percent-encoding is decoded first, then "~1" becomes "/" and "~0" becomes "~".
func SplitPointer(pointer string) ([]string, error) {
	pointer = strings.TrimPrefix(pointer, "#")
	if pointer == "" || pointer == "/" {
		return nil, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("document: pointer %q must start with /", pointer)
	}
	decoded, err := url.PathUnescape(pointer)
	if err != nil {
		return nil, fmt.Errorf("document: pointer %q: %w", pointer, err)
	}
	parts := strings.Split(decoded[1:], "/")
	for i, p := range parts {
		parts[i] = unescapePointer(p)
	}
	return parts, nil
}

// JoinPointer escapes segments and joins them into a JSON pointer.
func JoinPointer(segs ...string) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteByte('/')
		sb.WriteString(escapePointer(s))
	}
	return sb.String()
}

func unescapePointer(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}

func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
