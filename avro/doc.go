// Package avro emits Apache Avro schemas from a resolved schema graph.
//
// Objects become records whose fields keep the source property order,
// arrays become Avro arrays, unions become Avro unions and enumerations
// become Avro enums. Primitive kinds map onto Avro primitives:
//
//	integer  -> int (long for format int64)
//	number   -> double (float for format float)
//	string   -> string
//	boolean  -> boolean
//	null     -> null
//
// Named types (records and enums) take their name from the definition they
// were declared under, then the schema title, then the field that holds
// them. A node emitted once is referenced by name afterwards, so shared
// and recursive schemas produce valid Avro.
//
// Emission never merges allOf branches; objects merged while building
// already carry the merged fields.
//
// # Basic Usage
//
//	s, _ := schema.CompileFile("pet.json", schema.WithPointer("/definitions/Pet"))
//	res, err := avro.Emit(s.Graph, s.Root, avro.WithNamespace("com.example"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, _ := res.JSON()
//	if err := avro.Check(out); err != nil {
//	    log.Fatal(err)
//	}
package avro
