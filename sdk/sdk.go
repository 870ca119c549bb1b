// Package sdk is the base for concrete API clients: it validates the option map, builds
// the transport and exposes one method per HTTP verb, each returning an envelope.
package sdk

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/kanata-php/sdk-utils/config"
	"github.com/kanata-php/sdk-utils/envelope"
	"github.com/kanata-php/sdk-utils/httpx"
	"github.com/kanata-php/sdk-utils/request"
	"github.com/kanata-php/sdk-utils/version"
)

type Option func(*Base)

// WithTransport replaces the HTTP client built from the options. Request URLs are then
// passed to t unchanged.
func WithTransport(t request.Transport) Option {
	return func(b *Base) { b.transport = t }
}

func WithLogger(l zerolog.Logger) Option {
	return func(b *Base) { b.logger = l }
}

// WithoutWatch keeps NewFromFile from watching the file; Reload still works.
func WithoutWatch() Option {
	return func(b *Base) { b.noWatch = true }
}

// Base holds the token, the decoded options and the executor. It is safe for concurrent use.
type Base struct {
	token     string
	transport request.Transport
	logger    zerolog.Logger
	noWatch   bool

	state atomic.Pointer[state]
	file  *config.Config[map[string]any]
}

type state struct {
	opts Options
	exec *request.Executor
}

// New validates options and prepares the client. It returns ErrMissingAPIURL when
// options carry no api-url.
func New(token string, options map[string]any, opts ...Option) (*Base, error) {
	b := newBase(token, opts)
	o, err := ParseOptions(options)
	if err != nil {
		return nil, err
	}
	st, err := b.build(o)
	if err != nil {
		return nil, err
	}
	b.state.Store(st)
	return b, nil
}

func newBase(token string, opts []Option) *Base {
	b := &Base{token: token, logger: zerolog.Nop()}
	for _, o := range opts {
		if o != nil {
			o(b)
		}
	}
	return b
}

func (b *Base) build(o Options) (*state, error) {
	t := b.transport
	if t == nil {
		var err error
		if t, err = b.newTransport(o); err != nil {
			return nil, err
		}
	}
	return &state{opts: o, exec: request.New(t, request.WithLogger(b.logger))}, nil
}

// newTransport builds the client selected by the transport option.
func (b *Base) newTransport(o Options) (request.Transport, error) {
	ua := o.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	rt := httpx.NewTransport(httpx.TransportConfig{InsecureSkipVerify: o.InsecureSkipVerify})

	if o.Transport == TransportResty {
		c := resty.New().
			SetTransport(rt).
			SetBaseURL(o.APIURL).
			SetTimeout(o.TimeoutDuration()).
			SetHeader("User-Agent", ua).
			SetHeaders(o.Headers)
		var ropts []request.RestyOption
		if o.HTTPErrors {
			ropts = append(ropts, request.WithRestyHTTPErrors())
		}
		return request.NewRestyTransport(c, ropts...), nil
	}

	headers := make(http.Header, len(o.Headers))
	for k, v := range o.Headers {
		headers.Set(k, v)
	}
	c, err := httpx.New(
		httpx.WithBaseURL(o.APIURL),
		httpx.WithTimeout(o.TimeoutDuration()),
		httpx.WithTransport(rt),
		httpx.WithDefaultHeaders(headers),
		httpx.WithUserAgent(ua),
		httpx.WithLogger(b.logger),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "build http client for %s", o.APIURL)
	}
	var topts []request.HTTPTransportOption
	if o.HTTPErrors {
		topts = append(topts, request.WithHTTPErrors())
	}
	return request.NewHTTPTransport(c, topts...), nil
}

// Request runs one call. The error is non-nil only for a method the executor does not handle.
func (b *Base) Request(ctx context.Context, method request.Method, url string, opts ...request.SpecOption) (*envelope.Envelope, error) {
	return b.state.Load().exec.Execute(ctx, b.token, request.NewSpec(method, url, opts...))
}

func (b *Base) Get(ctx context.Context, url string, opts ...request.SpecOption) *envelope.Envelope {
	return b.mustRequest(ctx, request.MethodGet, url, opts)
}

func (b *Base) Post(ctx context.Context, url string, opts ...request.SpecOption) *envelope.Envelope {
	return b.mustRequest(ctx, request.MethodPost, url, opts)
}

func (b *Base) Put(ctx context.Context, url string, opts ...request.SpecOption) *envelope.Envelope {
	return b.mustRequest(ctx, request.MethodPut, url, opts)
}

func (b *Base) Delete(ctx context.Context, url string, opts ...request.SpecOption) *envelope.Envelope {
	return b.mustRequest(ctx, request.MethodDelete, url, opts)
}

// mustRequest is for the built-in verbs, which always have a handler.
func (b *Base) mustRequest(ctx context.Context, m request.Method, url string, opts []request.SpecOption) *envelope.Envelope {
	env, err := b.Request(ctx, m, url, opts...)
	if err != nil {
		panic(err)
	}
	return env
}

func (b *Base) APIURL() string { return b.state.Load().opts.APIURL }

func (b *Base) Token() string { return b.token }

// Options returns a copy of the current options.
func (b *Base) Options() Options { return b.state.Load().opts.clone() }
