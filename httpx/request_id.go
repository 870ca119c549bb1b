package httpx

import "github.com/google/uuid"

// RequestIDConfig names the correlation header and how its value is made.
// An empty Header disables it.
type RequestIDConfig struct {
	Header string
	New    func() string
}

func DefaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{Header: "X-Request-ID", New: DefaultRequestID}
}

// DefaultRequestID is a random UUID.
func DefaultRequestID() string { return uuid.NewString() }
