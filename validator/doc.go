// Package validator checks JSON instances against a resolved schema graph.
//
// Validation walks the graph in lock-step with the instance and collects
// every violated constraint instead of stopping at the first one. Each
// violation names the failed keyword, the expected bound, a summary of the
// offending value and the instance path.
//
// # Basic Usage
//
//	s, err := schema.CompileFile("pet.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, err := validator.New(s.Graph)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := v.Validate(s.Root, instance)
//	if err != nil {
//	    log.Fatal(err) // unresolved reference
//	}
//	for _, viol := range res.Violations {
//	    fmt.Println(viol)
//	}
//
// # Semantics
//
// String lengths count Unicode code points. Patterns match anywhere in the
// value. multipleOf accepts a quotient within a relative tolerance of 1e-9
// of an integer. Object keys without a declared property are not checked,
// and anyOf/oneOf are carried by the graph but not enforced.
//
// A union picks its alternative by instance kind: an alternative of exactly
// the instance's kind first, then a numeric widening (an integer instance to
// a number alternative, an integral float to an integer alternative), then
// any type-less alternative. No candidate, or more than one in the deciding
// tier, is a "union" violation.
//
// The "format" keyword is only asserted when WithFormatAssertion is set.
//
// # Concurrency
//
// A Validator is safe for concurrent use once the graph is no longer being
// built or resolved.
package validator
