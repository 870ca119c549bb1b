// Package envelope implements the uniform result returned by every SDK call.
//
// An Envelope is an ordered key-value bag rather than a fixed struct: the formatting
// setter writes the well-known keys (status, success, data, message, error, debug),
// callers may write and read back any other key, and the JSON form is exactly the bag.
package envelope
