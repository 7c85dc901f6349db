package exchange

import "errors"

// Engine errors.
var (
	// ErrEngineClosed completes every outstanding transaction on Close and
	// is returned by Send afterwards.
	ErrEngineClosed = errors.New("engine closed")

	// ErrReset is delivered when the peer rejects a request with RST.
	ErrReset = errors.New("request reset by peer")

	// ErrNotConfirmable is returned for requests that are not CON.
	ErrNotConfirmable = errors.New("request must be confirmable")

	// ErrNotRequest is returned when the packet code is not a request method.
	ErrNotRequest = errors.New("packet is not a request")

	// ErrCancelled completes a transaction abandoned through Cancel.
	ErrCancelled = errors.New("request cancelled")
)
