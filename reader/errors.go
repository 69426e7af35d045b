package reader

import "errors"

var (
	// ErrUnknownIdentity is returned when a requested reader identity is
	// not configured.
	ErrUnknownIdentity = errors.New("unknown reader identity")

	// ErrMalformedResponse is returned when a reader's output could not be
	// parsed into a structured reading.
	ErrMalformedResponse = errors.New("malformed reader response")

	// ErrEmptyResponse is returned when a reader produced no output.
	ErrEmptyResponse = errors.New("empty reader response")
)
