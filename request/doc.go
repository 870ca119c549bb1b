// Package request executes one SDK call and normalizes its outcome into an
// envelope.Envelope.
//
// Outcome mapping, in order of precedence:
//
//	connect/timeout failure     -> 408 "Request timeout!"
//	client error (4xx raised)   -> pass-through status, remote message or procedure message
//	any other transport failure -> 500 procedure message
//	status == expected          -> success with data
//	404 (GET and DELETE only)   -> success without data
//	403                         -> "Forbidden!"
//	anything else               -> 500 "Unknown Error!"
//
// Payload wrapping differs per method: POST wraps under a configurable key (or not at
// all), PUT always wraps under "data". On a JSON success GET falls back to the whole
// body when it has no "data" key while DELETE falls back to nothing.
package request
