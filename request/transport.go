package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kanata-php/sdk-utils/httpx"
)

// SendOptions carries everything a Transport needs besides method and URL.
type SendOptions struct {
	// Token is sent as "Authorization: Bearer <Token>".
	Token   string
	Headers http.Header
	// Body is nil for requests without a body.
	Body []byte
}

// RawResponse is a received response. The executor always closes Body.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Transport performs the network call.
//
// Failures are reported as *TransportError so the executor can tell connect/timeout
// failures, raised client errors and everything else apart. Any other error type is
// treated as KindOther.
type Transport interface {
	Send(ctx context.Context, method, url string, opts SendOptions) (*RawResponse, error)
}

// TransportFunc adapts a function to a Transport.
type TransportFunc func(ctx context.Context, method, url string, opts SendOptions) (*RawResponse, error)

func (f TransportFunc) Send(ctx context.Context, method, url string, opts SendOptions) (*RawResponse, error) {
	return f(ctx, method, url, opts)
}

type ErrorKind string

const (
	// KindConnect covers connection failures and timeouts.
	KindConnect ErrorKind = "connect"
	// KindClient is an HTTP 4xx response raised as an error; Response is set.
	KindClient ErrorKind = "client"
	// KindOther is any other failure.
	KindOther ErrorKind = "other"
)

// TransportError is the failure signal of a Transport.
type TransportError struct {
	Kind ErrorKind
	// Response is the raw response for KindClient, nil otherwise.
	Response *RawResponse
	Cause    error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	if e.Response != nil {
		return fmt.Sprintf("%s error: http %d %s", e.Kind, e.Response.StatusCode, http.StatusText(e.Response.StatusCode))
	}
	return string(e.Kind) + " error"
}

func (e *TransportError) Unwrap() error { return e.Cause }

// AsTransportError extracts *TransportError.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// ClassifyError wraps a Go network error into a TransportError.
// Timeouts, dial failures and DNS failures are KindConnect; everything else is KindOther.
func ClassifyError(err error) *TransportError {
	if err == nil {
		return nil
	}
	if te, ok := AsTransportError(err); ok {
		return te
	}
	kind := KindOther
	if httpx.IsConnect(err) {
		kind = KindConnect
	}
	return &TransportError{Kind: kind, Cause: err}
}
