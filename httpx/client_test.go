package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequest_PathUnderBaseURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://api.example.com", "/items/1", "https://api.example.com/items/1"},
		{"https://api.example.com/api/v1", "/items", "https://api.example.com/api/v1/items"},
		{"https://api.example.com/api/", "items?page=2", "https://api.example.com/api/items?page=2"},
		{"https://api.example.com/api", "https://other.example.com/x", "https://other.example.com/x"},
	}
	for _, tt := range tests {
		t.Run(tt.base+" "+tt.path, func(t *testing.T) {
			c := newClient(t, WithBaseURL(tt.base))
			req, err := c.NewRequest(context.Background(), http.MethodGet, tt.path)
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			if got := req.URL.String(); got != tt.want {
				t.Fatalf("url = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRequest_URLErrors(t *testing.T) {
	if _, err := New(WithBaseURL("api.example.com")); err == nil {
		t.Fatalf("expected error for a relative base url")
	}
	c := newClient(t)
	if _, err := c.NewRequest(context.Background(), http.MethodGet, "/items"); err == nil {
		t.Fatalf("expected error for a relative path without base url")
	}
	if _, err := c.NewRequest(context.Background(), http.MethodGet, " "); err == nil {
		t.Fatalf("expected error for an empty path")
	}
}

func TestNewRequest_HeaderLayers(t *testing.T) {
	c := newClient(t,
		WithBaseURL("https://api.example.com"),
		WithDefaultHeaders(http.Header{"Accept": {"text/plain"}, "X-Tenant": {"acme"}}),
		WithUserAgent("items-sdk/1.0"),
	)

	req, err := c.NewRequest(context.Background(), "post", "/items",
		WithHeaders(http.Header{"accept": {"application/json"}, "Content-Type": {"application/json"}}),
		WithBearerToken("secret"),
		WithBody(strings.NewReader(`{"name":"x"}`)),
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	if req.Method != http.MethodPost {
		t.Errorf("method = %q", req.Method)
	}
	want := map[string]string{
		"Accept":        "application/json",
		"X-Tenant":      "acme",
		"User-Agent":    "items-sdk/1.0",
		"Authorization": "Bearer secret",
		"Content-Type":  "application/json",
	}
	for k, v := range want {
		if got := req.Header.Get(k); got != v {
			t.Errorf("header %s = %q, want %q", k, got, v)
		}
	}
	if n := len(req.Header.Values("Accept")); n != 1 {
		t.Errorf("Accept sent %d times", n)
	}
	if id := req.Header.Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("request id = %q, want a uuid", id)
	}
	body, _ := io.ReadAll(req.Body)
	if string(body) != `{"name":"x"}` {
		t.Errorf("body = %s", body)
	}
}

func TestNewRequest_ExplicitAuthorizationWins(t *testing.T) {
	c := newClient(t, WithBaseURL("https://api.example.com"))
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/",
		WithHeaders(http.Header{"Authorization": {"Basic abc"}}),
		WithBearerToken("secret"),
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if got := req.Header.Get("Authorization"); got != "Basic abc" {
		t.Fatalf("Authorization = %q", got)
	}
}

func TestDo_ReturnsAnyStatusOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "busy")
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, WithBaseURL(srv.URL))
	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable || string(b) != "busy" {
		t.Fatalf("got %d %q", resp.StatusCode, b)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("server saw %d calls, want 1", n)
	}
}

func TestDoStatus_CapturesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			_, _ = io.WriteString(w, "fine")
			return
		}
		w.Header().Set("X-Request-ID", "srv-1")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"name is required"}`)
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, WithBaseURL(srv.URL))

	req, _ := c.NewRequest(context.Background(), http.MethodPost, "/items")
	resp, err := c.DoStatus(req)
	he, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if he.StatusCode != http.StatusUnprocessableEntity || he.RequestID != "srv-1" {
		t.Fatalf("unexpected error fields: %+v", he)
	}
	if string(he.RawBody) != `{"message":"name is required"}` {
		t.Fatalf("RawBody = %s", he.RawBody)
	}
	if !strings.Contains(he.Error(), "http 422 Unprocessable Entity") {
		t.Fatalf("Error() = %q", he.Error())
	}
	if resp == nil {
		t.Fatalf("expected the response alongside the error")
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(b) != string(he.RawBody) {
		t.Fatalf("resp.Body = %s", b)
	}

	req, _ = c.NewRequest(context.Background(), http.MethodGet, "/ok")
	resp, err = c.DoStatus(req)
	if err != nil {
		t.Fatalf("DoStatus on 200: %v", err)
	}
	_ = resp.Body.Close()
}

func TestDoStatus_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, strings.Repeat("a", 100))
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.MaxErrorBodyBytes = 10
	c, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}

	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/")
	_, err = c.DoStatus(req)
	if he, ok := AsError(err); !ok || len(he.RawBody) != 10 {
		t.Fatalf("expected a 10 byte capture, got %v", err)
	}
}

func TestTimeoutCoversBodyRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "first")
		w.(http.Flusher).Flush()
		select {
		case <-time.After(time.Second):
			_, _ = io.WriteString(w, " late")
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, WithBaseURL(srv.URL), WithTimeout(100*time.Millisecond))
	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	start := time.Now()
	_, err = io.ReadAll(resp.Body)
	if err == nil {
		t.Fatalf("expected the deadline to cut the body read")
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Fatalf("body read outlived the timeout")
	}
}

func TestBodyStaysReadableUntilClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "first")
		w.(http.Flusher).Flush()
		time.Sleep(30 * time.Millisecond)
		_, _ = io.WriteString(w, " second")
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, WithBaseURL(srv.URL), WithTimeout(2*time.Second))
	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	b, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil || string(b) != "first second" {
		t.Fatalf("body = %q, err = %v", b, err)
	}
}

func TestContextDeadlineBeforeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, WithBaseURL(srv.URL), WithTimeout(5*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, _ := c.NewRequest(ctx, http.MethodGet, "/")
	_, err := c.Do(req)
	he, ok := AsError(err)
	if !ok || he.StatusCode != 0 {
		t.Fatalf("expected a transport *Error, got %v", err)
	}
	if !IsTimeout(err) || !IsConnect(err) {
		t.Fatalf("expected a timeout, got %v", err)
	}
}

func TestConnectionRefusedIsConnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c := newClient(t, WithBaseURL("http://"+addr))
	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/")
	_, err = c.Do(req)
	if !IsConnect(err) {
		t.Fatalf("expected a connect error, got %v", err)
	}
	if IsTimeout(err) {
		t.Fatalf("refused connection reported as timeout: %v", err)
	}
}

func TestIsConnect(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"dns", &net.DNSError{Err: "no such host", Name: "x.invalid"}, true},
		{"wrapped", &Error{Cause: &net.DNSError{Err: "no such host"}}, true},
		{"read", &net.OpError{Op: "read", Err: errors.New("reset")}, false},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConnect(tt.err); got != tt.want {
				t.Fatalf("IsConnect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	var logs bytes.Buffer
	c := newClient(t, WithBaseURL(srv.URL), WithLogger(zerolog.New(&logs)))

	req, _ := c.NewRequest(context.Background(), http.MethodPut, "/items/1?token=abc")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	_ = resp.Body.Close()

	out := logs.String()
	for _, want := range []string{`"level":"debug"`, `"status":201`, `"method":"PUT"`, `"message":"http request"`, `"request_id":"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %s missing %s", out, want)
		}
	}

	logs.Reset()
	hook := LogHook(zerolog.New(&logs), "")
	failed, _ := http.NewRequest(http.MethodGet, "http://user:pw@example.com/x", nil)
	hook(failed, nil, errors.New("refused"), time.Millisecond)
	out = logs.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"error":"refused"`) {
		t.Errorf("unexpected failure log: %s", out)
	}
	if strings.Contains(out, "pw") {
		t.Errorf("password leaked into log: %s", out)
	}
}

func TestNewTransport_InsecureSkipVerify(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "tls")
	}))
	t.Cleanup(srv.Close)

	strict := newClient(t, WithBaseURL(srv.URL))
	req, _ := strict.NewRequest(context.Background(), http.MethodGet, "/")
	if _, err := strict.Do(req); err == nil {
		t.Fatalf("expected a certificate error")
	}

	lax := newClient(t, WithBaseURL(srv.URL), WithTransport(NewTransport(TransportConfig{InsecureSkipVerify: true})))
	req, _ = lax.NewRequest(context.Background(), http.MethodGet, "/")
	resp, err := lax.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	_ = resp.Body.Close()
}
