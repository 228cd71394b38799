// Package document loads JSON and YAML schema documents while keeping
// the key order of every mapping.
//
// Schema keyword order matters to aptos: object properties are validated
// and emitted in the order the author wrote them. Go maps do not keep that
// order, so [Parse] decodes through a yaml.Node tree and returns mappings
// as [*Map] values. Sequences decode to []any and scalars to string, bool,
// int, float64 or nil.
//
// # Loading
//
//	raw, err := document.Load("petstore.yaml")
//	if err != nil {
//	    return err
//	}
//	pet, ok := document.Lookup(raw, "/definitions/Pet")
//
// Use "-" as the path to read from standard input. [Plain] converts a
// parsed value back into map[string]any form for libraries that expect it.
package document
