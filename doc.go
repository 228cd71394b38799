// Package aptos is a JSON Schema type engine: it turns JSON Schema documents
// (draft-04 family, including the schemas embedded in Swagger 2.0 and
// OpenAPI 3.x documents) into a typed graph, validates JSON instances
// against that graph, and converts it into Avro schemas.
//
// # Overview
//
// The library is split into small packages that are composed in order:
//
//   - document: parse JSON or YAML into ordered values and walk JSON pointers
//   - schema: build a typed node graph from a raw schema and resolve $refs
//   - validator: check instances against a resolved graph
//   - avro: emit an Avro schema for a node of a resolved graph
//   - openapi: load Swagger/OpenAPI documents and select response schemas
//   - httpfetch: fetch JSON documents and API responses
//   - schemaerrors: typed errors shared by every package
//
// # Quick Start
//
// Compile a schema and validate an instance:
//
//	import (
//		"github.com/erraggy/aptos/schema"
//		"github.com/erraggy/aptos/validator"
//	)
//
//	s, err := schema.CompileFile("pet.schema.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := validator.Validate(s, instance)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, v := range res.Violations {
//		fmt.Println(v)
//	}
//
// Emit an Avro schema:
//
//	import "github.com/erraggy/aptos/avro"
//
//	res, err := avro.Emit(s.Graph, s.Root, avro.WithNamespace("com.example"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	data, _ := res.JSON()
//
// Validate an API response against its OpenAPI document:
//
//	import "github.com/erraggy/aptos/openapi"
//
//	doc, err := openapi.LoadFile("petstore.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	s, err := doc.ResponseSchema("GET", 200, "/v2/pet/12")
//
// # Command-Line Tool
//
// The aptos command exposes the same operations:
//
//	aptos validate pet.schema.json pet.json
//	aptos avro --namespace com.example pet.schema.json
//	aptos inspect openapi.yaml
//	aptos fetch --spec petstore.yaml https://petstore.example.com/v2/pet/12
//	aptos mcp
//
// # Error Handling
//
// Errors are typed (see the schemaerrors package) and support errors.Is
// against sentinels such as schemaerrors.ErrReference or
// schemaerrors.ErrCircularReference. Instance violations are not errors:
// they are returned in validator.Result.
package aptos
