package log

import (
	"time"

	"github.com/coapstack/coap-go/pkg/coap"
)

// Event is a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the engine or manager instance (UUID).
	SessionID string `cbor:"2,keyasint"`

	Direction Direction `cbor:"3,keyasint"`
	Layer     Layer     `cbor:"4,keyasint"`
	Category  Category  `cbor:"5,keyasint"`

	// LocalAddr is the local socket address, if known.
	LocalAddr string `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer endpoint (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Packet      *PacketEvent      `cbor:"11,keyasint,omitempty"`
	Transaction *TransactionEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction indicates message flow.
type Direction uint8

const (
	// DirectionIn indicates received data.
	DirectionIn Direction = 0
	// DirectionOut indicates sent data.
	DirectionOut Direction = 1
	// DirectionNone marks events with no flow, such as state changes.
	DirectionNone Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionNone:
		return "-"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which part of the stack captured the event.
type Layer uint8

const (
	// LayerTransport is the socket layer (raw bytes).
	LayerTransport Layer = 0
	// LayerMessage is the decoded CoAP message layer.
	LayerMessage Layer = 1
	// LayerTransaction is the transaction manager.
	LayerTransaction Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerMessage:
		return "MESSAGE"
	case LayerTransaction:
		return "TRANSACTION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates data on the wire.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw bytes at the transport layer.
type FrameEvent struct {
	// Size is the size on the wire, including any length prefix.
	Size int `cbor:"1,keyasint"`

	// Data holds the raw bytes, truncated for large frames.
	Data []byte `cbor:"2,keyasint,omitempty"`

	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MaxFrameDataSize bounds the bytes copied into a FrameEvent.
const MaxFrameDataSize = 4096

// NewFrameEvent builds a FrameEvent for data, truncating it to MaxFrameDataSize.
// overhead is added to Size for framing bytes not present in data.
func NewFrameEvent(data []byte, overhead int) *FrameEvent {
	frame := &FrameEvent{Size: len(data) + overhead, Data: data}
	if len(data) > MaxFrameDataSize {
		frame.Data = data[:MaxFrameDataSize]
		frame.Truncated = true
	}
	return frame
}

// PacketEvent captures the decoded header of a CoAP message.
type PacketEvent struct {
	Type        coap.MessageType `cbor:"1,keyasint"`
	Code        coap.Code        `cbor:"2,keyasint"`
	MessageID   uint16           `cbor:"3,keyasint"`
	Token       []byte           `cbor:"4,keyasint,omitempty"`
	PayloadSize int              `cbor:"5,keyasint,omitempty"`
}

// NewPacketEvent summarises p for logging.
func NewPacketEvent(p *coap.Packet) *PacketEvent {
	return &PacketEvent{
		Type:        p.Type,
		Code:        p.Code,
		MessageID:   p.MessageID,
		Token:       p.Token,
		PayloadSize: len(p.Payload),
	}
}

// TransactionEvent captures a transaction lifecycle transition.
// States and priority are stored by name so the log stays readable
// without the transaction package.
type TransactionEvent struct {
	MessageID uint16 `cbor:"1,keyasint"`
	Token     []byte `cbor:"2,keyasint,omitempty"`
	Priority  string `cbor:"3,keyasint,omitempty"`

	// OldState is empty for newly admitted transactions.
	OldState string `cbor:"4,keyasint,omitempty"`
	NewState string `cbor:"5,keyasint"`

	Reason string `cbor:"6,keyasint,omitempty"`

	// QueueDepth is the endpoint queue length after the transition.
	QueueDepth int `cbor:"7,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Context describes the operation that failed.
	Context string `cbor:"3,keyasint,omitempty"`
}
