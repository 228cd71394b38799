package validator

import (
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/erraggy/aptos/schema"
	"github.com/erraggy/aptos/schemaerrors"
)

// Violation is one failed constraint.
type Violation = schemaerrors.Violation

// Result is the outcome of validating one instance.
type Result struct {
	// Valid is true when no constraint failed.
	Valid bool `json:"valid" yaml:"valid"`
	// Violations lists every failed constraint in discovery order.
	Violations []Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
	// Truncated is true when collection stopped at WithMaxViolations.
	Truncated bool `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Err returns the violations as a *schemaerrors.ValidationError, or nil
// when the instance is valid.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	return &schemaerrors.ValidationError{Violations: r.Violations, Truncated: r.Truncated}
}

// maxPatternCacheSize is the upper bound on cached compiled patterns.
// When exceeded, the cache is cleared.
const maxPatternCacheSize = 1000

// Validator validates instances against nodes of one graph.
type Validator struct {
	graph *schema.Graph
	cfg   *config

	// patternCache caches compiled patterns (sync.Map[string, *regexp.Regexp])
	patternCache sync.Map
	patternCount atomic.Int32
}

// New returns a Validator for g. The graph must be resolved.
func New(g *schema.Graph, opts ...Option) (*Validator, error) {
	if g == nil {
		return nil, fmt.Errorf("validator: graph cannot be nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return &Validator{graph: g, cfg: cfg}, nil
}

// Validate checks instance against the node id. Violations are returned in
// the Result; the error is reserved for graph misuse, such as an unknown id
// or a Reference node reached during the walk.
func (v *Validator) Validate(id schema.ID, instance any) (*Result, error) {
	if v.graph.Node(id) == nil {
		return nil, fmt.Errorf("validator: no node with id %d", id)
	}
	w := &walk{v: v, active: make(map[visitKey]bool)}
	if err := w.visit(id, frame{value: instance}); err != nil {
		return nil, err
	}
	res := &Result{
		Valid:      len(w.violations) == 0,
		Violations: w.violations,
		Truncated:  w.truncated,
	}
	v.cfg.logger.Debug("instance validated", "node", id, "violations", len(res.Violations), "truncated", res.Truncated)
	return res, nil
}

// Validate is a convenience function that validates instance against the
// root of a compiled schema.
func Validate(s *schema.Schema, instance any, opts ...Option) (*Result, error) {
	v, err := New(s.Graph, opts...)
	if err != nil {
		return nil, err
	}
	return v.Validate(s.Root, instance)
}

// matchPattern compiles and matches a regex pattern with search semantics.
func (v *Validator) matchPattern(pattern, s string) (bool, error) {
	if cached, ok := v.patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp).MatchString(s), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}

	// The count check and clear are not atomic; concurrent clears only
	// cost recompilation.
	if v.patternCount.Add(1) > maxPatternCacheSize {
		v.patternCache.Range(func(key, _ any) bool {
			v.patternCache.Delete(key)
			return true
		})
		v.patternCount.Store(1)
	}
	v.patternCache.Store(pattern, re)
	return re.MatchString(s), nil
}
