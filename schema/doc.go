// Package schema builds JSON Schema and OpenAPI schema objects into a typed
// node graph and resolves the $ref pointers inside it.
//
// # Overview
//
// A raw schema document (see package document) is turned into a [Graph]: an
// arena of [Node] values addressed by [ID]. Container nodes hold the IDs of
// their children, so shared and self-referential schemas are expressed by
// several slots holding the same ID rather than by copying.
//
// Every node is one of ten variants: [Array], [Boolean], [Integer],
// [Number], [Null], [Object], [String], [Union], [Reference] and
// [Enumerated]. The set is closed. Code that needs to handle every variant
// implements [Visitor] and dispatches through [Accept], so a new variant
// cannot be added without every visitor failing to compile.
//
// # Pipeline
//
// The [Registry] maps a schema's "type" (or "$ref") to a constructor. The
// [Builder] applies constructors recursively and records every node's
// [Location]. The [Resolver] then replaces each [Reference] with the node
// its fragment points at, building the target on demand and caching it by
// location so that recursive schemas terminate.
//
//	raw, err := document.Load("pet.json")
//	if err != nil {
//	    return err
//	}
//	s, err := schema.Compile(raw, schema.WithPointer("/definitions/Pet"))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(s.Graph.Kind(s.Root)) // object
//
// # Permissive types
//
// An unrecognized "type" string is built as an [Object] and reported as an
// info-level issue. [WithStrictTypes] turns the fallback into an
// [schemaerrors.UnsupportedTypeError].
//
// # allOf
//
// For an object schema, allOf branches are merged into the object's own
// properties at build time and the object is marked [Object.MergedAllOf].
// The validator does not revisit merged branches and the Avro transformer
// never merges.
package schema
