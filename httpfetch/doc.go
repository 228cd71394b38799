// Package httpfetch is a small HTTP client for JSON APIs.
//
// Every request carries "Accept: application/json" and, when a body is
// sent, "Content-Type: application/json". Response bodies are read up to a
// configurable size and decoded with numbers kept as json.Number, ready for
// package validator:
//
//	c, err := httpfetch.New(httpfetch.WithTimeout(10 * time.Second))
//	if err != nil {
//	    return err
//	}
//	resp, err := c.Get(ctx, "https://petstore.example.com/v2/pet/12")
//	if err != nil {
//	    return err
//	}
//	s, err := doc.ResponseSchema(http.MethodGet, resp.Status, resp.URL)
//
// WithPrivateAddressBlocking refuses connections to private, loopback and
// link-local addresses, including after redirects. Use it when URLs come
// from untrusted callers.
package httpfetch
