// Package schemaerrors provides structured error types for the aptos library.
//
// Import path: github.com/erraggy/aptos/schemaerrors
//
// This package enables programmatic error handling via [errors.Is] and [errors.As],
// allowing callers to distinguish between a schema that could not be built, a
// reference that could not be resolved, and an instance that failed validation.
//
// # Error Types
//
//   - [ParseError]: malformed raw schema (bad $ref syntax, wrong keyword value types)
//   - [ReferenceError]: $ref resolution failures, circular references, path traversal
//   - [ValidationError]: an instance failed one or more constraints; carries every [Violation]
//   - [UnsupportedTypeError]: unknown "type" discriminator in strict mode
//   - [ResourceLimitError]: resource exhaustion (depth, size limits)
//   - [ConfigError]: invalid configuration or input options
//
// # Sentinel Errors
//
// Each error type has a corresponding sentinel error for use with errors.Is():
//
//   - [ErrParse]: Matches any [ParseError]
//   - [ErrReference]: Matches any [ReferenceError]
//   - [ErrCircularReference]: Matches [ReferenceError] with IsCircular=true
//   - [ErrPathTraversal]: Matches [ReferenceError] with IsPathTraversal=true
//   - [ErrValidation]: Matches any [ValidationError]
//   - [ErrUnsupportedType]: Matches any [UnsupportedTypeError]
//   - [ErrResourceLimit]: Matches any [ResourceLimitError]
//   - [ErrConfig]: Matches any [ConfigError]
//
// # Usage
//
//	s, err := schema.Compile(doc)
//	if err != nil {
//	    var refErr *schemaerrors.ReferenceError
//	    if errors.As(err, &refErr) {
//	        log.Fatalf("unresolved %s", refErr.Ref)
//	    }
//	}
//
//	res, _ := v.Validate(s.Root(), instance)
//	if err := res.Err(); err != nil {
//	    var verr *schemaerrors.ValidationError
//	    if errors.As(err, &verr) {
//	        for _, viol := range verr.Violations {
//	            fmt.Println(viol.String())
//	        }
//	    }
//	}
package schemaerrors
