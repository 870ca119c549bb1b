package request

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/kanata-php/sdk-utils/envelope"
)

// Option configures an Executor.
type Option func(*Executor)

// WithLogger logs one event per call: debug for successes, warn for failures.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// Executor runs Specs against a Transport. It holds no per-call state and is safe for
// concurrent use.
type Executor struct {
	transport Transport
	logger    zerolog.Logger
}

// New returns an Executor sending through t.
func New(t Transport, opts ...Option) *Executor {
	e := &Executor{transport: t, logger: zerolog.Nop()}
	for _, o := range opts {
		if o != nil {
			o(e)
		}
	}
	return e
}

type handler func(e *Executor, ctx context.Context, token string, s Spec) *envelope.Envelope

var handlers = map[Method]handler{
	MethodGet:    (*Executor).get,
	MethodPost:   (*Executor).post,
	MethodPut:    (*Executor).put,
	MethodDelete: (*Executor).delete,
}

// Execute performs the call described by s, authenticating with token.
//
// Network and remote failures never produce an error: they are reported in the
// envelope. The only error is *UnimplementedMethodError.
func (e *Executor) Execute(ctx context.Context, token string, s Spec) (*envelope.Envelope, error) {
	h, ok := handlers[s.Method]
	if !ok {
		return nil, &UnimplementedMethodError{Method: s.Method}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	env := h(e, ctx, token, s)

	ev := e.logger.Debug()
	if !env.Success() {
		ev = e.logger.Warn()
		if msg, ok := env.Message(); ok {
			ev = ev.Str("envelope_message", msg)
		}
	}
	ev.Str("method", string(s.Method)).
		Str("url", s.URL).
		Str("procedure", s.procedure()).
		Int("status", env.Status()).
		Bool("success", env.Success()).
		Msg("sdk request")
	return env, nil
}

// Execute is a one-off helper: it builds a Spec and runs it on an Executor around client.
func Execute(ctx context.Context, client Transport, token string, method Method, url string, opts ...SpecOption) (*envelope.Envelope, error) {
	return New(client).Execute(ctx, token, NewSpec(method, url, opts...))
}

func (e *Executor) post(ctx context.Context, token string, s Spec) *envelope.Envelope {
	payload := s.InputData
	if s.Wrapper != nil {
		payload = map[string]any{*s.Wrapper: s.InputData}
	}
	return e.write(ctx, token, s, payload)
}

func (e *Executor) put(ctx context.Context, token string, s Spec) *envelope.Envelope {
	return e.write(ctx, token, s, map[string]any{DefaultWrapper: s.InputData})
}

func (e *Executor) get(ctx context.Context, token string, s Spec) *envelope.Envelope {
	return e.read(ctx, token, s, dataOrWhole)
}

func (e *Executor) delete(ctx context.Context, token string, s Spec) *envelope.Envelope {
	return e.read(ctx, token, s, dataOrNil)
}

// write is shared by POST and PUT.
func (e *Executor) write(ctx context.Context, token string, s Spec, payload any) *envelope.Envelope {
	env := envelope.New()
	info := requestInfo(s.URL, payload, true)

	body, err := json.Marshal(payload)
	if err != nil {
		failWith(env, &TransportError{Kind: KindOther, Cause: err}, info, s.procedure())
		return env
	}

	resp, ok := e.send(ctx, env, token, s, body, info)
	if !ok {
		return env
	}
	defer resp.Body.Close()

	env.Set(envelope.KeyStatus, resp.StatusCode)

	switch {
	case resp.StatusCode == s.ExpectedStatus:
		raw, err := readAll(resp.Body)
		if err != nil {
			failWith(env, ClassifyError(err), info, s.procedure())
			return env
		}
		env.SetFormattedResponse(s.ExpectedStatus, true,
			envelope.WithData(dataOrWhole(decodeJSON(raw))),
		)
	case resp.StatusCode == http.StatusForbidden:
		forbidden(env, info, resp)
	default:
		unknown(env, info, resp)
	}
	return env
}

// read is shared by GET and DELETE; jsonData picks the data out of a parsed JSON body.
func (e *Executor) read(ctx context.Context, token string, s Spec, jsonData func(any) any) *envelope.Envelope {
	env := envelope.New()
	info := requestInfo(s.URL, nil, false)

	resp, ok := e.send(ctx, env, token, s, nil, info)
	if !ok {
		return env
	}
	defer resp.Body.Close()

	env.Set(envelope.KeyStatus, resp.StatusCode)

	switch {
	case resp.StatusCode == s.ExpectedStatus:
		var data any
		if s.Accept == DefaultAccept {
			raw, err := readAll(resp.Body)
			if err != nil {
				failWith(env, ClassifyError(err), info, s.procedure())
				return env
			}
			data = jsonData(decodeJSON(raw))
		} else {
			text, err := readChunks(resp.Body)
			if err != nil {
				failWith(env, ClassifyError(err), info, s.procedure())
				return env
			}
			data = text
		}
		env.SetFormattedResponse(s.ExpectedStatus, true, envelope.WithData(data))
	case resp.StatusCode == http.StatusNotFound:
		env.SetFormattedResponse(http.StatusNotFound, true)
	case resp.StatusCode == http.StatusForbidden:
		forbidden(env, info, resp)
	default:
		unknown(env, info, resp)
	}
	return env
}

// send performs the transport call. When it fails the envelope is formatted and ok is false.
func (e *Executor) send(ctx context.Context, env *envelope.Envelope, token string, s Spec, body []byte, info *envelope.Map) (*RawResponse, bool) {
	hdr := make(http.Header)
	hdr.Set("Content-Type", s.ContentType)
	hdr.Set("Accept", s.Accept)

	resp, err := e.transport.Send(ctx, string(s.Method), s.URL, SendOptions{Token: token, Headers: hdr, Body: body})
	if err != nil {
		failWith(env, ClassifyError(err), info, s.procedure())
		return nil, false
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	return resp, true
}
