package openapi

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// template is a compiled path template such as "/pet/{petId}".
type template struct {
	path   string
	re     *regexp.Regexp
	params []string
	// score orders templates: literal characters count up, parameters down.
	score int
}

func compileTemplate(path string) (*template, error) {
	if path == "" || path[0] != '/' {
		return nil, fmt.Errorf("openapi: path template %q must start with /", path)
	}
	var (
		sb     strings.Builder
		params []string
		score  int
	)
	sb.WriteByte('^')
	for rest := path; rest != ""; {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			score += literalScore(rest)
			sb.WriteString(regexp.QuoteMeta(rest))
			break
		}
		score += literalScore(rest[:open])
		sb.WriteString(regexp.QuoteMeta(rest[:open]))
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("openapi: unclosed parameter in path template %q", path)
		}
		name := rest[open+1 : open+end]
		if name == "" {
			return nil, fmt.Errorf("openapi: empty parameter in path template %q", path)
		}
		if slices.Contains(params, name) {
			return nil, fmt.Errorf("openapi: duplicate parameter %q in path template %q", name, path)
		}
		params = append(params, name)
		sb.WriteString("([^/]+)")
		score--
		rest = rest[open+end+1:]
	}
	sb.WriteByte('$')
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("openapi: path template %q: %w", path, err)
	}
	return &template{path: path, re: re, params: params, score: score}, nil
}

func literalScore(s string) int {
	return len(s) - strings.Count(s, "/")
}

// match reports whether p matches and returns the parameter values.
func (t *template) match(p string) (map[string]string, bool) {
	m := t.re.FindStringSubmatch(p)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(t.params))
	for i, name := range t.params {
		params[name] = m[i+1]
	}
	return params, true
}

// templates is a set of path templates tried most specific first.
type templates []*template

func compileTemplates(paths []string) (templates, error) {
	set := make(templates, 0, len(paths))
	for _, p := range paths {
		t, err := compileTemplate(p)
		if err != nil {
			return nil, err
		}
		set = append(set, t)
	}
	slices.SortFunc(set, func(a, b *template) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := cmp.Compare(len(b.path), len(a.path)); c != 0 {
			return c
		}
		return strings.Compare(a.path, b.path)
	})
	return set, nil
}

// match returns the first template matching p.
func (s templates) match(p string) (*template, map[string]string, bool) {
	for _, t := range s {
		if params, ok := t.match(p); ok {
			return t, params, true
		}
	}
	return nil, nil, false
}
