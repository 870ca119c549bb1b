package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error is returned by Do for transport failures (StatusCode 0) and by DoStatus for
// non-2xx responses.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	RequestID  string
	// RawBody is the captured, possibly truncated, response body.
	RawBody []byte
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Method + " " + e.URL + ": "
	if e.StatusCode == 0 {
		msg += "request failed"
	} else {
		msg += fmt.Sprintf("http %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.RequestID != "" {
		msg += " request_id=" + e.RequestID
	}
	if e.StatusCode == 0 && e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError extracts *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var he *Error
	ok := errors.As(err, &he)
	return he, ok
}

// IsTimeout reports a context deadline or a net.Error timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsConnect reports a failure to reach the server: timeouts, dial errors and failed
// name lookups.
func IsConnect(err error) bool {
	if IsTimeout(err) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
