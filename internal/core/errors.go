package core

import "errors"

// Error codes surfaced over the wire and in logs.
const (
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeMalformedEvent = "malformed_event"
	ErrCodeStaleReference = "stale_reference"
)

var (
	// ErrMalformedEvent marks an event missing required routing fields.
	// Such events are dropped; the connection stays up.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrStaleReference marks an event referencing a chat or user that is
	// no longer valid. Delivery stays best-effort; the next REST fetch
	// restores correctness.
	ErrStaleReference = errors.New("stale reference")
)
