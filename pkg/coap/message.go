package coap

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/netip"
)

// MessageType is the CoAP message type (RFC 7252 section 3).
type MessageType uint8

const (
	// Confirmable messages require an acknowledgement.
	Confirmable MessageType = 0

	// NonConfirmable messages are not acknowledged.
	NonConfirmable MessageType = 1

	// Acknowledgement acknowledges a confirmable message.
	Acknowledgement MessageType = 2

	// Reset rejects a message the receiver cannot process.
	Reset MessageType = 3
)

// String returns the short message type name.
func (t MessageType) String() string {
	switch t {
	case Confirmable:
		return "CON"
	case NonConfirmable:
		return "NON"
	case Acknowledgement:
		return "ACK"
	case Reset:
		return "RST"
	default:
		return "UNKNOWN"
	}
}

// Code is a CoAP method or response code, encoded as class (3 bits) and
// detail (5 bits).
type Code uint8

// NewCode builds a code from its class and detail, e.g. NewCode(2, 5) for 2.05.
func NewCode(class, detail uint8) Code {
	return Code(class<<5 | detail&0x1f)
}

// Method and response codes.
const (
	CodeEmpty Code = 0

	GET    Code = 0x01
	POST   Code = 0x02
	PUT    Code = 0x03
	DELETE Code = 0x04

	Created               Code = 0x41 // 2.01
	Deleted               Code = 0x42 // 2.02
	Valid                 Code = 0x43 // 2.03
	Changed               Code = 0x44 // 2.04
	Content               Code = 0x45 // 2.05
	Continue              Code = 0x5f // 2.31
	BadRequest            Code = 0x80 // 4.00
	Unauthorized          Code = 0x81 // 4.01
	NotFound              Code = 0x84 // 4.04
	MethodNotAllowed      Code = 0x85 // 4.05
	RequestEntityTooLarge Code = 0x8d // 4.13
	TooManyRequests       Code = 0x9d // 4.29
	InternalServerError   Code = 0xa0 // 5.00
	NotImplemented        Code = 0xa1 // 5.01
	ServiceUnavailable    Code = 0xa3 // 5.03
	GatewayTimeout        Code = 0xa4 // 5.04
)

// Class returns the code class (0 = request, 2..5 = response).
func (c Code) Class() uint8 {
	return uint8(c) >> 5
}

// Detail returns the code detail.
func (c Code) Detail() uint8 {
	return uint8(c) & 0x1f
}

// IsEmpty reports whether c is the empty code 0.00.
func (c Code) IsEmpty() bool {
	return c == CodeEmpty
}

// IsRequest reports whether c is a request method code.
func (c Code) IsRequest() bool {
	return c.Class() == 0 && c.Detail() != 0
}

// IsResponse reports whether c is a response code (class 2 to 5).
func (c Code) IsResponse() bool {
	class := c.Class()
	return class >= 2 && class <= 5
}

// String returns the method name for request codes and c.dd otherwise.
func (c Code) String() string {
	switch c {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case DELETE:
		return "DELETE"
	}
	return fmt.Sprintf("%d.%02d", c.Class(), c.Detail())
}

// MaxTokenLength is the longest token allowed by RFC 7252.
const MaxTokenLength = 8

// Token correlates requests and responses independently of message IDs.
type Token []byte

// Equal reports whether t and other hold the same bytes.
func (t Token) Equal(other Token) bool {
	return bytes.Equal(t, other)
}

// IsEmpty reports whether the token has zero length.
func (t Token) IsEmpty() bool {
	return len(t) == 0
}

// String returns the token in hex.
func (t Token) String() string {
	return hex.EncodeToString(t)
}

// Packet is a decoded CoAP message together with its remote address.
type Packet struct {
	// Remote is the peer the packet was received from or is sent to.
	Remote netip.AddrPort

	Type      MessageType
	Code      Code
	MessageID uint16
	Token     Token

	// Options holds the encoded option block, opaque to this package.
	Options []byte

	Payload []byte
}

// IsRequest reports whether the packet carries a request method.
func (p *Packet) IsRequest() bool {
	return p.Code.IsRequest()
}

// IsResponse reports whether the packet carries a response code.
func (p *Packet) IsResponse() bool {
	return p.Code.IsResponse()
}

// IsEmpty reports whether the packet is an empty message (code 0.00).
func (p *Packet) IsEmpty() bool {
	return p.Code.IsEmpty()
}

// String returns a compact one-line description.
func (p *Packet) String() string {
	if len(p.Token) == 0 {
		return fmt.Sprintf("%s %s MID:%d %s", p.Type, p.Code, p.MessageID, p.Remote)
	}
	return fmt.Sprintf("%s %s MID:%d Token:%s %s", p.Type, p.Code, p.MessageID, p.Token, p.Remote)
}

// NewEmptyAck builds the empty acknowledgement for a confirmable message.
func NewEmptyAck(to *Packet) *Packet {
	return &Packet{
		Remote:    to.Remote,
		Type:      Acknowledgement,
		Code:      CodeEmpty,
		MessageID: to.MessageID,
	}
}

// NewReset builds the reset message rejecting msg.
func NewReset(msg *Packet) *Packet {
	return &Packet{
		Remote:    msg.Remote,
		Type:      Reset,
		Code:      CodeEmpty,
		MessageID: msg.MessageID,
	}
}
