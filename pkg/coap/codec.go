package coap

import (
	"errors"
	"net/netip"
)

// ErrMalformedPacket is returned by codecs for bytes that are not a CoAP message.
var ErrMalformedPacket = errors.New("malformed packet")

// Codec converts packets to and from their wire representation.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode serializes p. The Remote field is not part of the encoding.
	Encode(p *Packet) ([]byte, error)

	// Decode parses data received from remote.
	Decode(remote netip.AddrPort, data []byte) (*Packet, error)
}
