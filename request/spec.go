package request

import "go.openly.dev/pointy"

const (
	DefaultExpectedStatus = 200
	DefaultContentType    = "application/json"
	DefaultAccept         = "application/json"
	DefaultWrapper        = "data"
)

// Spec describes one call. Build it with NewSpec so the defaults apply.
type Spec struct {
	Method Method
	URL    string

	// Procedure labels the call in error messages; empty means the method name.
	Procedure string

	// InputData is the payload for POST and PUT. GET and DELETE ignore it.
	InputData any

	// Wrapper is the key POST nests InputData under; nil sends InputData verbatim.
	// PUT ignores it and always wraps under "data".
	Wrapper *string

	ExpectedStatus int
	ContentType    string
	Accept         string
}

// SpecOption customizes a Spec.
type SpecOption func(*Spec)

// NewSpec returns a Spec with the default expected status, content type, accept header
// and wrapper key.
func NewSpec(method Method, url string, opts ...SpecOption) Spec {
	s := Spec{
		Method:         method,
		URL:            url,
		Wrapper:        pointy.String(DefaultWrapper),
		ExpectedStatus: DefaultExpectedStatus,
		ContentType:    DefaultContentType,
		Accept:         DefaultAccept,
	}
	for _, o := range opts {
		if o != nil {
			o(&s)
		}
	}
	return s
}

func WithProcedure(name string) SpecOption {
	return func(s *Spec) { s.Procedure = name }
}

func WithInputData(v any) SpecOption {
	return func(s *Spec) { s.InputData = v }
}

func WithExpectedStatus(code int) SpecOption {
	return func(s *Spec) { s.ExpectedStatus = code }
}

func WithContentType(ct string) SpecOption {
	return func(s *Spec) { s.ContentType = ct }
}

func WithAccept(accept string) SpecOption {
	return func(s *Spec) { s.Accept = accept }
}

// WithWrapper nests the POST payload under key.
func WithWrapper(key string) SpecOption {
	return func(s *Spec) { s.Wrapper = pointy.String(key) }
}

// WithoutWrapper sends the POST payload as is.
func WithoutWrapper() SpecOption {
	return func(s *Spec) { s.Wrapper = nil }
}

func (s Spec) procedure() string {
	if s.Procedure != "" {
		return s.Procedure
	}
	return string(s.Method)
}
