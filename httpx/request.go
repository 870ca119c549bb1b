package httpx

import (
	"context"
	"io"
	"net/http"
	"strings"
)

type RequestOption func(*requestConfig)

type requestConfig struct {
	header http.Header
	body   io.Reader
	bearer string
}

// WithHeaders sets h on the request; its keys replace the client's default headers.
func WithHeaders(h http.Header) RequestOption {
	return func(c *requestConfig) {
		if c.header == nil {
			c.header = make(http.Header)
		}
		for k, vv := range h {
			c.header[http.CanonicalHeaderKey(k)] = append([]string(nil), vv...)
		}
	}
}

func WithBody(r io.Reader) RequestOption {
	return func(c *requestConfig) { c.body = r }
}

// WithBearerToken sends "Authorization: Bearer <token>" unless the request already
// carries an Authorization header. An empty token still sends the scheme.
func WithBearerToken(token string) RequestOption {
	return func(c *requestConfig) { c.bearer = "Bearer " + token }
}

// NewRequest builds a request for path, absolute or relative to the base URL. Headers
// are layered as: client defaults, then option headers, then User-Agent, bearer token
// and request id when still unset.
func (c *Client) NewRequest(ctx context.Context, method, path string, opts ...RequestOption) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var rc requestConfig
	for _, o := range opts {
		if o != nil {
			o(&rc)
		}
	}

	u, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), u.String(), rc.body)
	if err != nil {
		return nil, err
	}

	for k, vv := range c.headers {
		req.Header[k] = append([]string(nil), vv...)
	}
	for k, vv := range rc.header {
		req.Header[k] = vv
	}
	setDefault(req.Header, "User-Agent", c.userAgent)
	setDefault(req.Header, "Authorization", rc.bearer)
	if c.requestID.Header != "" && req.Header.Get(c.requestID.Header) == "" {
		setDefault(req.Header, c.requestID.Header, strings.TrimSpace(c.requestID.New()))
	}
	return req, nil
}

func setDefault(h http.Header, key, value string) {
	if value != "" && h.Get(key) == "" {
		h.Set(key, value)
	}
}
