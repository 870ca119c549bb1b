package httpx

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// TransportConfig holds the transport settings an SDK exposes as options.
type TransportConfig struct {
	// InsecureSkipVerify disables certificate verification (local development only).
	InsecureSkipVerify bool
}

// NewTransport returns DefaultTransport() with cfg applied.
func NewTransport(cfg TransportConfig) *http.Transport {
	t := DefaultTransport()
	if cfg.InsecureSkipVerify {
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{}
		}
		t.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
	}
	return t
}

// DefaultTransport clones http.DefaultTransport with dial and handshake timeouts well
// below DefaultTimeout, so an unreachable host surfaces as a connect failure.
func DefaultTransport() *http.Transport {
	base, _ := http.DefaultTransport.(*http.Transport)
	if base == nil {
		return &http.Transport{}
	}
	t := base.Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.TLSHandshakeTimeout = 5 * time.Second
	t.IdleConnTimeout = 90 * time.Second
	if t.MaxIdleConnsPerHost == 0 {
		t.MaxIdleConnsPerHost = 10
	}
	return t
}
