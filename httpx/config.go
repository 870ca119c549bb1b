package httpx

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Config is the full client configuration; New starts from DefaultConfig().
type Config struct {
	// BaseURL prefixes relative request paths. Empty means only absolute URLs work.
	BaseURL string
	// Timeout bounds a call until its body is closed. A sooner context deadline wins.
	Timeout   time.Duration
	Transport http.RoundTripper

	DefaultHeaders http.Header
	UserAgent      string

	// MaxErrorBodyBytes caps what DoStatus captures; 0 means the default, negative no cap.
	MaxErrorBodyBytes int64
	RequestID         RequestIDConfig

	Logger zerolog.Logger
}

const (
	DefaultTimeout                 = 15 * time.Second
	DefaultMaxErrorBodyBytes int64 = 1 << 20
)

func DefaultConfig() Config {
	return Config{
		Timeout:           DefaultTimeout,
		Transport:         DefaultTransport(),
		MaxErrorBodyBytes: DefaultMaxErrorBodyBytes,
		RequestID:         DefaultRequestIDConfig(),
		Logger:            zerolog.Nop(),
	}
}
