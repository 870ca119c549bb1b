package sdk

import (
	"maps"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Recognized option keys.
const (
	OptionAPIURL     = "api-url"
	OptionTimeout    = "timeout"
	OptionHTTPErrors = "http-errors"
	OptionUserAgent  = "user-agent"
	OptionHeaders    = "headers"

	OptionTransport          = "transport"
	OptionInsecureSkipVerify = "insecure-skip-verify"
)

// Values of the transport option. The empty value means TransportHTTP.
const (
	TransportHTTP  = "http"
	TransportResty = "resty"
)

// DefaultTimeout is the request timeout in seconds when none is given.
const DefaultTimeout = 15.0

// ErrMissingAPIURL is returned when the api-url option is absent or empty.
var ErrMissingAPIURL = errors.New(`the option with the "api-url" is required`)

// Options is the decoded option map.
type Options struct {
	APIURL string `mapstructure:"api-url" validate:"required,url"`
	// Timeout is in seconds; 0 disables the client timeout.
	Timeout float64 `mapstructure:"timeout" validate:"gte=0"`
	// HTTPErrors makes error statuses fail at the transport: 4xx pass their status and
	// message through, 5xx become the procedure error.
	HTTPErrors bool              `mapstructure:"http-errors"`
	UserAgent  string            `mapstructure:"user-agent"`
	Headers    map[string]string `mapstructure:"headers" validate:"dive,keys,required,endkeys"`
	// Transport picks the HTTP client: "http" (default) or "resty".
	Transport string `mapstructure:"transport" validate:"omitempty,oneof=http resty"`
	// InsecureSkipVerify disables TLS certificate checks, for local development servers.
	InsecureSkipVerify bool `mapstructure:"insecure-skip-verify"`

	// Extra keeps every key not listed above, for SDKs built on Base.
	Extra map[string]any `mapstructure:",remain"`
}

// TimeoutDuration converts Timeout to a time.Duration.
func (o Options) TimeoutDuration() time.Duration {
	return time.Duration(o.Timeout * float64(time.Second))
}

func (o Options) clone() Options {
	o.Headers = maps.Clone(o.Headers)
	o.Extra = maps.Clone(o.Extra)
	return o
}

func defaultOptions() map[string]any {
	return map[string]any{OptionTimeout: DefaultTimeout}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseOptions merges raw over the defaults, decodes and validates the result.
func ParseOptions(raw map[string]any) (Options, error) {
	merged := defaultOptions()
	maps.Copy(merged, raw)

	var o Options
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &o,
	})
	if err != nil {
		return Options{}, errors.Wrap(err, "build options decoder")
	}
	if err := dec.Decode(merged); err != nil {
		return Options{}, errors.Wrap(err, "decode sdk options")
	}

	o.APIURL = strings.TrimSpace(o.APIURL)
	if o.APIURL == "" {
		return Options{}, ErrMissingAPIURL
	}
	if err := validate.Struct(o); err != nil {
		return Options{}, errors.Wrap(err, "invalid sdk options")
	}
	return o, nil
}
