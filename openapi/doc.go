// Package openapi locates the schemas inside Swagger 2.0 and OpenAPI 3.x
// documents.
//
// [Load] builds every named schema ("definitions" in Swagger 2.0,
// "components/schemas" in OpenAPI 3.x) into one shared [schema.Graph].
// Response schemas are built on demand by [Document.ResponseSchema], which
// maps a concrete request to the schema governing its response body:
//
//	doc, err := openapi.LoadFile("petstore.yaml")
//	if err != nil {
//	    return err
//	}
//	s, err := doc.ResponseSchema("GET", 200, "/v2/pet/12")
//	if err != nil {
//	    return err
//	}
//	result, err := validator.Validate(s, body)
//
// Paths are matched against the document's path templates, most specific
// template first, so "/pet/findByStatus" wins over "/pet/{petId}". A
// Swagger basePath or the path of an OpenAPI server URL may prefix the
// request path. Status codes are looked up exactly, then by range ("2XX"),
// then as "default".
//
// A Document is safe for concurrent use.
package openapi
