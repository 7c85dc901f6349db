package exchange

import (
	"fmt"
	"net/netip"

	"github.com/fxamacker/cbor/v2"

	"github.com/coapstack/coap-go/pkg/coap"
)

// cborCodec is a test codec carrying the packet header fields as a CBOR map.
type cborCodec struct{}

type wirePacket struct {
	Type      coap.MessageType `cbor:"1,keyasint"`
	Code      coap.Code        `cbor:"2,keyasint"`
	MessageID uint16           `cbor:"3,keyasint"`
	Token     []byte           `cbor:"4,keyasint,omitempty"`
	Options   []byte           `cbor:"5,keyasint,omitempty"`
	Payload   []byte           `cbor:"6,keyasint,omitempty"`
}

func (cborCodec) Encode(p *coap.Packet) ([]byte, error) {
	return cbor.Marshal(wirePacket{
		Type:      p.Type,
		Code:      p.Code,
		MessageID: p.MessageID,
		Token:     p.Token,
		Options:   p.Options,
		Payload:   p.Payload,
	})
}

func (cborCodec) Decode(remote netip.AddrPort, data []byte) (*coap.Packet, error) {
	var w wirePacket
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", coap.ErrMalformedPacket, err)
	}
	if w.Type > coap.Reset {
		return nil, fmt.Errorf("%w: type %d", coap.ErrMalformedPacket, w.Type)
	}
	return &coap.Packet{
		Remote:    remote,
		Type:      w.Type,
		Code:      w.Code,
		MessageID: w.MessageID,
		Token:     w.Token,
		Options:   w.Options,
		Payload:   w.Payload,
	}, nil
}
