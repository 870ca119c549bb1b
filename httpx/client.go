package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client sends SDK requests against one API base URL.
type Client struct {
	hc      *http.Client
	base    *url.URL
	timeout time.Duration

	headers    http.Header
	userAgent  string
	maxErrBody int64
	requestID  RequestIDConfig

	after []AfterHook
}

// New applies opts over DefaultConfig().
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	rt := cfg.Transport
	if rt == nil {
		rt = DefaultTransport()
	}
	limit := cfg.MaxErrorBodyBytes
	if limit == 0 {
		limit = DefaultMaxErrorBodyBytes
	}
	if cfg.RequestID.Header != "" && cfg.RequestID.New == nil {
		cfg.RequestID.New = DefaultRequestID
	}

	return &Client{
		hc:         &http.Client{Transport: rt},
		base:       base,
		timeout:    cfg.Timeout,
		headers:    cfg.DefaultHeaders.Clone(),
		userAgent:  cfg.UserAgent,
		maxErrBody: limit,
		requestID:  cfg.RequestID,
		after:      []AfterHook{LogHook(cfg.Logger, cfg.RequestID.Header)},
	}, nil
}

// parseBaseURL accepts an empty string (absolute request URLs only) or an absolute URL.
// The path gets a trailing slash so it acts as a prefix.
func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: errors.New("base url must be absolute")}
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// resolve keeps relative paths under the base path, so "/users" on https://host/api/
// becomes https://host/api/users.
func (c *Client) resolve(path string) (*url.URL, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(p)
	if err != nil {
		return nil, err
	}
	if u.IsAbs() {
		return u, nil
	}
	if c.base == nil {
		return nil, errors.New("relative url requires a base url")
	}
	rel := *u
	rel.Path = strings.TrimPrefix(rel.Path, "/")
	return c.base.ResolveReference(&rel), nil
}

// cancelOnClose releases the request deadline only once the body is closed, so the
// timeout also bounds reading the body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// Do sends req once and returns the response whatever its status. A failure before a
// response arrives is an *Error with StatusCode 0. The caller closes resp.Body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req, false)
}

// DoStatus is Do for callers that treat non-2xx as failures: such a response comes
// back together with an *Error holding its status and up to MaxErrorBodyBytes of its
// body. The same bytes stay readable on resp.Body.
func (c *Client) DoStatus(req *http.Request) (*http.Response, error) {
	return c.do(req, true)
}

func (c *Client) do(req *http.Request, failOnStatus bool) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	ctx, cancel := c.withDeadline(req.Context())
	req = req.Clone(ctx)

	start := time.Now()
	resp, err := c.hc.Do(req)
	elapsed := time.Since(start)
	for _, h := range c.after {
		h(req, resp, err, elapsed)
	}

	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		cancel()
		return nil, &Error{
			Method:    req.Method,
			URL:       req.URL.String(),
			RequestID: c.requestIDOf(req, nil),
			Cause:     err,
		}
	}

	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	if failOnStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return resp, c.statusError(req, resp)
	}
	return resp, nil
}

// withDeadline applies the client timeout unless ctx already ends sooner.
func (c *Client) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	dl := time.Now().Add(c.timeout)
	if existing, ok := ctx.Deadline(); ok && existing.Before(dl) {
		return ctx, func() {}
	}
	return context.WithDeadline(ctx, dl)
}

// statusError captures the body of a non-2xx response into an *Error and replaces
// resp.Body with the captured bytes.
func (c *Client) statusError(req *http.Request, resp *http.Response) error {
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if c.maxErrBody > 0 {
		r = io.LimitReader(resp.Body, c.maxErrBody)
	}
	raw, readErr := io.ReadAll(r)
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	cause := errors.New(http.StatusText(resp.StatusCode))
	if readErr != nil {
		cause = readErr
	}
	return &Error{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		RequestID:  c.requestIDOf(req, resp),
		RawBody:    raw,
		Cause:      cause,
	}
}

// requestIDOf prefers the id echoed by the server.
func (c *Client) requestIDOf(req *http.Request, resp *http.Response) string {
	h := c.requestID.Header
	if h == "" {
		return ""
	}
	if resp != nil {
		if id := strings.TrimSpace(resp.Header.Get(h)); id != "" {
			return id
		}
	}
	return strings.TrimSpace(req.Header.Get(h))
}
