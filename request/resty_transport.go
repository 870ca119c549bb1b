package request

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// RestyOption configures NewRestyTransport.
type RestyOption func(*restyTransport)

// WithRestyHTTPErrors is the resty counterpart of WithHTTPErrors.
func WithRestyHTTPErrors() RestyOption {
	return func(t *restyTransport) { t.httpErrors = true }
}

type restyTransport struct {
	client     *resty.Client
	httpErrors bool
}

// NewRestyTransport adapts a resty client. Retries configured on the client are left
// to the caller; the SDK itself never retries.
func NewRestyTransport(c *resty.Client, opts ...RestyOption) Transport {
	if c == nil {
		c = resty.New()
	}
	t := &restyTransport{client: c}
	for _, o := range opts {
		if o != nil {
			o(t)
		}
	}
	return t
}

func (t *restyTransport) Send(ctx context.Context, method, url string, opts SendOptions) (*RawResponse, error) {
	r := t.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetAuthToken(opts.Token)
	for k, vv := range opts.Headers {
		for _, v := range vv {
			r.Header.Add(k, v)
		}
	}
	if opts.Body != nil {
		r.SetBody(opts.Body)
	}

	resp, err := r.Execute(method, url)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			_ = resp.RawBody().Close()
		}
		return nil, ClassifyError(err)
	}

	raw := &RawResponse{StatusCode: resp.StatusCode(), Header: resp.Header(), Body: resp.RawBody()}
	if raw.Body == nil {
		raw.Body = http.NoBody
	}
	if t.httpErrors {
		if te := statusError(raw); te != nil {
			return nil, te
		}
	}
	return raw, nil
}

// statusError is the resty counterpart of httpx.Client.DoStatus: 4xx become KindClient
// carrying the response, 5xx become KindOther.
func statusError(resp *RawResponse) *TransportError {
	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &TransportError{Kind: KindClient, Response: resp}
	case resp.StatusCode >= 500:
		defer resp.Body.Close()
		return &TransportError{
			Kind:  KindOther,
			Cause: fmt.Errorf("server error: http %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	default:
		return nil
	}
}
