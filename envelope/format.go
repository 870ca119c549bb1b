package envelope

// Field is an optional part of a formatted response.
type Field func(*Map)

// WithData sets data. A nil value leaves any previous data untouched.
func WithData(v any) Field {
	return func(m *Map) {
		if v != nil {
			m.Set(KeyData, v)
		}
	}
}

// WithMessage sets the human readable message.
func WithMessage(msg string) Field {
	return func(m *Map) { m.Set(KeyMessage, msg) }
}

// WithError sets the underlying error text.
func WithError(err string) Field {
	return func(m *Map) { m.Set(KeyError, err) }
}

// WithDebug sets the diagnostic payload. A nil payload leaves any previous one untouched.
func WithDebug(d *Map) Field {
	return func(m *Map) {
		if d != nil {
			m.Set(KeyDebug, d)
		}
	}
}

// SetFormattedResponse always writes status and success and then applies the given
// fields. Fields that are not passed keep whatever value the envelope already had.
func (e *Envelope) SetFormattedResponse(status int, success bool, fields ...Field) {
	m := e.bag()
	m.Set(KeyStatus, status)
	m.Set(KeySuccess, success)
	for _, f := range fields {
		if f != nil {
			f(m)
		}
	}
}

// GetFormattedResponse reduces the envelope to {success, data|message, error?}.
//
// A successful envelope must carry data: ErrMissingData is returned otherwise, for
// example after a GET that answered 404 or a DELETE whose body had no data key.
// An unsuccessful envelope always carries a message key, nil if none was set.
func (e *Envelope) GetFormattedResponse() (*Map, error) {
	success := e.Success()
	out := NewMap()
	out.Set(KeySuccess, success)

	if success {
		data, ok := e.Lookup(KeyData)
		if !ok {
			return nil, ErrMissingData
		}
		out.Set(KeyData, data)
	} else {
		out.Set(KeyMessage, e.Get(KeyMessage))
	}

	if errText, ok := e.Error(); ok && errText != "" {
		out.Set(KeyError, errText)
	}
	return out, nil
}

// SetErrorResponse formats a 500 "Unknown Error!" envelope for a response that could
// not be interpreted, keeping the raw body as text, and returns the internal mapping.
func (e *Envelope) SetErrorResponse(responseStatus int, responseBody string, requestInfo string) *Map {
	debug := NewMap()
	debug.Set("request-info", requestInfo)
	debug.Set("response-status", responseStatus)
	debug.Set("response-body", responseBody)

	e.SetFormattedResponse(500, false,
		WithMessage("Unknown Error!"),
		WithDebug(debug),
	)
	return e.bag()
}
