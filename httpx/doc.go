// Package httpx is the HTTP client behind the SDK transport.
//
// A Client resolves request paths under one base URL, adds default headers, a
// User-Agent, a bearer token and a request id, and bounds every call with a timeout
// that lasts until the response body is closed. Do returns any response; DoStatus turns
// non-2xx responses into *Error with the body captured. Each call is attempted once and
// logged through zerolog.
package httpx
