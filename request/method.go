package request

import (
	"errors"
	"strings"
)

// Method is an HTTP method the executor knows how to handle.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// ErrUnimplementedMethod matches every *UnimplementedMethodError.
var ErrUnimplementedMethod = errors.New("not implemented method")

// UnimplementedMethodError is returned for a method without a handler.
// It signals a caller bug rather than a network condition, so it is never turned
// into an envelope.
type UnimplementedMethodError struct {
	Method Method
}

func (e *UnimplementedMethodError) Error() string {
	return ErrUnimplementedMethod.Error() + ": " + string(e.Method)
}

func (e *UnimplementedMethodError) Is(target error) bool {
	return target == ErrUnimplementedMethod
}

// ParseMethod upper-cases s and checks it against the handler table.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := handlers[m]; !ok {
		return m, &UnimplementedMethodError{Method: m}
	}
	return m, nil
}

// Methods lists the supported methods.
func Methods() []Method {
	return []Method{MethodGet, MethodPost, MethodPut, MethodDelete}
}

func (m Method) String() string { return string(m) }
