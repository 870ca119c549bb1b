package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kanata-php/sdk-utils/envelope"
)

const (
	msgTimeout   = "Request timeout!"
	msgForbidden = "Forbidden!"
	msgUnknown   = "Unknown Error!"

	// chunkSize is the read size for non-JSON bodies.
	chunkSize = 1024
)

// Keys of the debug payload.
const (
	DebugRequestInfo    = "request-info"
	DebugRequestURL     = "request-url"
	DebugRequestBody    = "request-body"
	DebugResponseStatus = "response-status"
	DebugResponseBody   = "response-body"
)

func procedureMessage(procedure string) string {
	return "There was an error with procedure " + procedure + "!"
}

func requestInfo(url string, payload any, withBody bool) *envelope.Map {
	info := envelope.NewMap()
	info.Set(DebugRequestURL, url)
	if withBody {
		info.Set(DebugRequestBody, payload)
	}
	return info
}

func debugWith(info *envelope.Map) *envelope.Map {
	d := envelope.NewMap()
	d.Set(DebugRequestInfo, info)
	return d
}

// failWith formats a transport failure.
func failWith(env *envelope.Envelope, te *TransportError, info *envelope.Map, procedure string) {
	switch {
	case te.Kind == KindConnect:
		env.SetFormattedResponse(http.StatusRequestTimeout, false,
			envelope.WithMessage(msgTimeout),
			envelope.WithError(te.Error()),
			envelope.WithDebug(debugWith(info)),
		)
	case te.Kind == KindClient && te.Response != nil:
		resp := te.Response
		raw, _ := readAll(resp.Body)
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		parsed := decodeJSON(raw)

		d := debugWith(info)
		d.Set(DebugResponseBody, parsed)
		env.SetFormattedResponse(resp.StatusCode, false,
			envelope.WithMessage(messageOr(parsed, procedureMessage(procedure))),
			envelope.WithDebug(d),
		)
	default:
		env.SetFormattedResponse(http.StatusInternalServerError, false,
			envelope.WithMessage(procedureMessage(procedure)),
			envelope.WithError(te.Error()),
			envelope.WithDebug(debugWith(info)),
		)
	}
}

func forbidden(env *envelope.Envelope, info *envelope.Map, resp *RawResponse) {
	raw, _ := readAll(resp.Body)

	d := debugWith(info)
	d.Set(DebugResponseBody, decodeJSON(raw))
	env.SetFormattedResponse(http.StatusForbidden, false,
		envelope.WithMessage(msgForbidden),
		envelope.WithDebug(d),
	)
}

func unknown(env *envelope.Envelope, info *envelope.Map, resp *RawResponse) {
	raw, _ := readAll(resp.Body)

	d := debugWith(info)
	d.Set(DebugResponseStatus, resp.StatusCode)
	d.Set(DebugResponseBody, decodeJSON(raw))
	env.SetFormattedResponse(http.StatusInternalServerError, false,
		envelope.WithMessage(msgUnknown),
		envelope.WithDebug(d),
	)
}

func readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	return io.ReadAll(r)
}

// readChunks reads r to the end in fixed-size chunks, keeping the bytes as they are.
func readChunks(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		sb.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
	}
}

// decodeJSON returns the decoded body, or nil when it is empty or not JSON.
func decodeJSON(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func field(parsed any, key string) any {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil
	}
	return obj[key]
}

// dataOrWhole is the GET, POST and PUT rule: the "data" key, else the whole body.
func dataOrWhole(parsed any) any {
	if d := field(parsed, "data"); d != nil {
		return d
	}
	return parsed
}

// dataOrNil is the DELETE rule: the "data" key, else nothing.
func dataOrNil(parsed any) any {
	return field(parsed, "data")
}

func messageOr(parsed any, fallback string) string {
	switch m := field(parsed, "message").(type) {
	case nil:
		return fallback
	case string:
		return m
	default:
		return fmt.Sprint(m)
	}
}
