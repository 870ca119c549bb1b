package envelope

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Well-known keys written by SetFormattedResponse.
const (
	KeyStatus  = "status"
	KeySuccess = "success"
	KeyData    = "data"
	KeyMessage = "message"
	KeyError   = "error"
	KeyDebug   = "debug"
)

// ErrMissingData is returned by GetFormattedResponse when the envelope reports success
// but data was never set.
var ErrMissingData = errors.New("envelope: success response has no data")

// Map is the ordered mapping used for envelopes and their nested debug payloads.
type Map = orderedmap.OrderedMap[string, any]

// NewMap returns an empty ordered mapping.
func NewMap() *Map {
	return orderedmap.New[string, any]()
}

// Envelope is a mutable, ordered property bag. It is not safe for concurrent mutation;
// each request owns its own envelope.
type Envelope struct {
	m *Map
}

// New returns an empty envelope.
func New() *Envelope {
	return &Envelope{m: NewMap()}
}

func (e *Envelope) bag() *Map {
	if e.m == nil {
		e.m = NewMap()
	}
	return e.m
}

// Set writes key, replacing any previous value but keeping its position.
func (e *Envelope) Set(key string, value any) {
	e.bag().Set(key, value)
}

// Get returns the value stored under key, or nil.
func (e *Envelope) Get(key string) any {
	v, _ := e.bag().Get(key)
	return v
}

// Lookup is like Get but also reports whether the key is present.
func (e *Envelope) Lookup(key string) (any, bool) {
	return e.bag().Get(key)
}

// Has reports whether key is present and not nil.
func (e *Envelope) Has(key string) bool {
	v, ok := e.bag().Get(key)
	return ok && v != nil
}

// Delete removes key.
func (e *Envelope) Delete(key string) {
	e.bag().Delete(key)
}

// Keys returns the keys in insertion order.
func (e *Envelope) Keys() []string {
	keys := make([]string, 0, e.bag().Len())
	for p := e.bag().Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Len returns the number of keys.
func (e *Envelope) Len() int {
	return e.bag().Len()
}

// Map exposes the underlying ordered mapping.
func (e *Envelope) Map() *Map {
	return e.bag()
}

// Status returns the status key, or 0 when it is missing or not an integer.
func (e *Envelope) Status() int {
	switch v := e.Get(KeyStatus).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Success returns the success key; a missing key reads as false.
func (e *Envelope) Success() bool {
	b, _ := e.Get(KeySuccess).(bool)
	return b
}

// Data returns the data key and whether it was set.
func (e *Envelope) Data() (any, bool) {
	return e.Lookup(KeyData)
}

// Message returns the message key and whether it was set.
func (e *Envelope) Message() (string, bool) {
	return e.stringKey(KeyMessage)
}

// Error returns the error key and whether it was set.
// It is named after the key, so Envelope does not implement the error interface.
func (e *Envelope) Error() (string, bool) {
	return e.stringKey(KeyError)
}

// Debug returns the debug payload, or nil.
func (e *Envelope) Debug() *Map {
	d, _ := e.Get(KeyDebug).(*Map)
	return d
}

func (e *Envelope) stringKey(key string) (string, bool) {
	v, ok := e.Lookup(key)
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// String renders the envelope as JSON, falling back to a Go representation.
func (e *Envelope) String() string {
	b, err := e.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", e.Keys())
	}
	return string(b)
}

// MarshalJSON serializes exactly the internal mapping.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	return e.bag().MarshalJSON()
}

// UnmarshalJSON replaces the envelope contents with a JSON object. The debug payload
// decodes to *Map, nested objects included, so Debug works after a round trip. Other
// nested objects decode as map[string]any.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}
	m := NewMap()
	for p := raw.Oldest(); p != nil; p = p.Next() {
		v, err := decodeValue(p.Value, p.Key == KeyDebug)
		if err != nil {
			return fmt.Errorf("envelope: decode %q: %w", p.Key, err)
		}
		m.Set(p.Key, v)
	}
	// JSON numbers decode as float64; status is an integer everywhere else.
	if v, ok := m.Get(KeyStatus); ok {
		if f, ok := v.(float64); ok {
			m.Set(KeyStatus, int(f))
		}
	}
	e.m = m
	return nil
}

// decodeValue decodes one JSON value. With ordered set, objects become *Map at any depth.
func decodeValue(data json.RawMessage, ordered bool) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if !ordered || len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		var v any
		err := json.Unmarshal(trimmed, &v)
		return v, err
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := decodeValue(item, true)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(trimmed); err != nil {
		return nil, err
	}
	m := NewMap()
	for p := raw.Oldest(); p != nil; p = p.Next() {
		v, err := decodeValue(p.Value, true)
		if err != nil {
			return nil, err
		}
		m.Set(p.Key, v)
	}
	return m, nil
}
