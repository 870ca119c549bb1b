package request

import (
	"bytes"
	"context"
	"net/http"

	"github.com/kanata-php/sdk-utils/httpx"
)

// HTTPTransportOption configures NewHTTPTransport.
type HTTPTransportOption func(*httpTransport)

// WithHTTPErrors makes the transport raise on error statuses: 4xx become KindClient
// failures carrying the response and 5xx become KindOther failures.
// Without it every status is returned as a response.
func WithHTTPErrors() HTTPTransportOption {
	return func(t *httpTransport) { t.httpErrors = true }
}

type httpTransport struct {
	client     *httpx.Client
	httpErrors bool
}

// NewHTTPTransport adapts an httpx.Client. Relative URLs resolve against the client's base URL.
func NewHTTPTransport(c *httpx.Client, opts ...HTTPTransportOption) Transport {
	t := &httpTransport{client: c}
	for _, o := range opts {
		if o != nil {
			o(t)
		}
	}
	return t
}

func (t *httpTransport) Send(ctx context.Context, method, url string, opts SendOptions) (*RawResponse, error) {
	reqOpts := []httpx.RequestOption{
		httpx.WithHeaders(opts.Headers),
		httpx.WithBearerToken(opts.Token),
	}
	if opts.Body != nil {
		reqOpts = append(reqOpts, httpx.WithBody(bytes.NewReader(opts.Body)))
	}

	req, err := t.client.NewRequest(ctx, method, url, reqOpts...)
	if err != nil {
		return nil, &TransportError{Kind: KindOther, Cause: err}
	}

	if !t.httpErrors {
		resp, err := t.client.Do(req)
		if err != nil {
			return nil, transportFailure(err)
		}
		return rawResponse(resp), nil
	}

	resp, err := t.client.DoStatus(req)
	if err == nil {
		return rawResponse(resp), nil
	}
	he, ok := httpx.AsError(err)
	if !ok || he.StatusCode == 0 {
		return nil, transportFailure(err)
	}
	switch {
	case he.StatusCode >= 400 && he.StatusCode < 500:
		// DoStatus leaves the captured body readable on resp.
		return nil, &TransportError{Kind: KindClient, Response: rawResponse(resp), Cause: he}
	case he.StatusCode >= 500:
		_ = resp.Body.Close()
		return nil, &TransportError{Kind: KindOther, Cause: he}
	default:
		// 1xx and 3xx are not errors for a raising client either.
		return rawResponse(resp), nil
	}
}

// transportFailure classifies the network error inside an *httpx.Error.
func transportFailure(err error) *TransportError {
	if he, ok := httpx.AsError(err); ok && he.Cause != nil {
		err = he.Cause
	}
	return ClassifyError(err)
}

func rawResponse(resp *http.Response) *RawResponse {
	raw := &RawResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}
	if raw.Body == nil {
		raw.Body = http.NoBody
	}
	return raw
}
