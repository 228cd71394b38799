package httpfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	j "github.com/goccy/go-json"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/internal/jsonvalue"
	"github.com/erraggy/aptos/schema"
	"github.com/erraggy/aptos/schemaerrors"
)

const jsonMediaType = "application/json"

// Response is a completed request.
type Response struct {
	// Status is the HTTP status code.
	Status int
	// URL is the final request URL, after redirects.
	URL string
	// Header holds the response headers.
	Header http.Header
	// Raw is the undecoded body.
	Raw []byte
	// Body is the decoded JSON body, nil when the body is empty.
	Body any
}

// Client sends JSON requests.
type Client struct {
	http        *http.Client
	userAgent   string
	maxBodySize int64
	header      http.Header
	logger      schema.Logger
}

// New returns a Client.
func New(opts ...Option) (*Client, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, err
	}
	hc := &http.Client{}
	if cfg.client != nil {
		copied := *cfg.client
		hc = &copied
	}
	hc.Timeout = cfg.timeout
	if cfg.blockPrivate {
		hc = guard(hc)
	}
	return &Client{
		http:        hc,
		userAgent:   cfg.userAgent,
		maxBodySize: cfg.maxBodySize,
		header:      cfg.header,
		logger:      cfg.logger,
	}, nil
}

// Get is Do with method GET and no body.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil)
}

// Do sends a request and decodes the JSON response body whatever its
// Content-Type. A non-nil body is sent as-is when it is a []byte and
// JSON-encoded otherwise. Non-2xx statuses are not errors.
func (c *Client) Do(ctx context.Context, method, url string, body any) (*Response, error) {
	resp, err := c.send(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if len(resp.Raw) == 0 {
		return resp, nil
	}
	v, err := jsonvalue.DecodeBytes(resp.Raw)
	if err != nil {
		msg := fmt.Sprintf("%s %s: invalid JSON body", method, url)
		if ct := resp.Header.Get("Content-Type"); ct != "" && !isJSON(ct) {
			msg += fmt.Sprintf(" (content type %q)", ct)
		}
		return nil, &schemaerrors.ParseError{Message: msg, Cause: err}
	}
	resp.Body = v
	return resp, nil
}

// FetchDocument GETs a JSON or YAML document and parses it the way
// document.Load does.
func (c *Client) FetchDocument(ctx context.Context, url string) (any, error) {
	resp, err := c.send(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, fmt.Errorf("httpfetch: GET %s: unexpected status %d", url, resp.Status)
	}
	v, err := document.Parse(resp.Raw)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: %s: %w", url, err)
	}
	return v, nil
}

func (c *Client) send(ctx context.Context, method, url string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		data, ok := body.([]byte)
		if !ok {
			var err error
			if data, err = j.Marshal(body); err != nil {
				return nil, fmt.Errorf("httpfetch: encoding request body: %w", err)
			}
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, reader)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: %w", err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", jsonMediaType)
	if body != nil {
		req.Header.Set("Content-Type", jsonMediaType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("sending request", "method", req.Method, "url", url)
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("httpfetch: reading response body: %w", err)
	}
	if int64(len(raw)) > c.maxBodySize {
		return nil, &schemaerrors.ResourceLimitError{
			ResourceType: "body_size",
			Limit:        c.maxBodySize,
			Message:      fmt.Sprintf("%s %s", req.Method, url),
		}
	}
	c.logger.Debug("received response", "status", httpResp.StatusCode, "bytes", len(raw))
	return &Response{
		Status: httpResp.StatusCode,
		URL:    httpResp.Request.URL.String(),
		Header: httpResp.Header,
		Raw:    raw,
	}, nil
}

// isJSON reports whether a Content-Type names JSON.
func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == jsonMediaType || strings.HasSuffix(mt, "+json")
}
