package httpx

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// AfterHook observes a finished call. resp is nil when err is set.
type AfterHook func(req *http.Request, resp *http.Response, err error, dur time.Duration)

// LogHook logs one event per call: debug on a response, warn on a transport failure.
func LogHook(l zerolog.Logger, requestIDHeader string) AfterHook {
	return func(req *http.Request, resp *http.Response, err error, dur time.Duration) {
		ev := l.Debug()
		if err != nil {
			ev = l.Warn().Err(err)
		}
		if resp != nil {
			ev = ev.Int("status", resp.StatusCode)
		}
		if requestIDHeader != "" {
			if id := req.Header.Get(requestIDHeader); id != "" {
				ev = ev.Str("request_id", id)
			}
		}
		ev.Str("method", req.Method).
			Str("url", req.URL.Redacted()).
			Dur("duration", dur).
			Msg("http request")
	}
}
