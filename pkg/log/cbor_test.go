package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/coapstack/coap-go/pkg/coap"
)

func TestPacketEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	original := Event{
		Timestamp:  ts,
		SessionID:  "8a3c1f0e-5b2d-4c7e-9f10-2b3c4d5e6f70",
		Direction:  DirectionIn,
		Layer:      LayerMessage,
		Category:   CategoryMessage,
		RemoteAddr: "192.168.1.100:5683",
		Packet: &PacketEvent{
			Type:        coap.Confirmable,
			Code:        coap.Content,
			MessageID:   4711,
			Token:       []byte{0x7b},
			PayloadSize: 12,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.SessionID != original.SessionID {
		t.Errorf("SessionID: got %q, want %q", decoded.SessionID, original.SessionID)
	}
	if decoded.RemoteAddr != original.RemoteAddr {
		t.Errorf("RemoteAddr: got %q, want %q", decoded.RemoteAddr, original.RemoteAddr)
	}
	if decoded.Packet == nil {
		t.Fatal("Packet is nil")
	}
	if decoded.Packet.Code != coap.Content {
		t.Errorf("Packet.Code: got %v, want %v", decoded.Packet.Code, coap.Content)
	}
	if decoded.Packet.MessageID != 4711 {
		t.Errorf("Packet.MessageID: got %d, want 4711", decoded.Packet.MessageID)
	}
	if !bytes.Equal(decoded.Packet.Token, []byte{0x7b}) {
		t.Errorf("Packet.Token: got %x, want 7b", decoded.Packet.Token)
	}
}

func TestTransactionEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp:  time.Now(),
		SessionID:  "session-1",
		Direction:  DirectionNone,
		Layer:      LayerTransaction,
		Category:   CategoryState,
		RemoteAddr: "10.0.0.1:5683",
		Transaction: &TransactionEvent{
			MessageID:  11,
			Priority:   "HIGH",
			OldState:   "ACTIVE",
			NewState:   "LOCKED",
			Reason:     "ack received",
			QueueDepth: 3,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	tx := decoded.Transaction
	if tx == nil {
		t.Fatal("Transaction is nil")
	}
	if tx.MessageID != 11 || tx.Priority != "HIGH" || tx.QueueDepth != 3 {
		t.Errorf("Transaction: got %+v", *tx)
	}
	if tx.OldState != "ACTIVE" || tx.NewState != "LOCKED" || tx.Reason != "ack received" {
		t.Errorf("Transaction states: got %+v", *tx)
	}
	if len(tx.Token) != 0 {
		t.Errorf("Transaction.Token: got %x, want empty", tx.Token)
	}
	if decoded.Direction != DirectionNone {
		t.Errorf("Direction: got %v, want %v", decoded.Direction, DirectionNone)
	}
}

func TestErrorEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		SessionID: "session-1",
		Direction: DirectionIn,
		Layer:     LayerMessage,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Layer:   LayerMessage,
			Message: "malformed packet",
			Context: "decode",
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Error == nil {
		t.Fatal("Error is nil")
	}
	if *decoded.Error != *original.Error {
		t.Errorf("Error: got %+v, want %+v", *decoded.Error, *original.Error)
	}
	if decoded.Packet != nil || decoded.Transaction != nil || decoded.Frame != nil {
		t.Error("unexpected payload set on error event")
	}
}

func TestNewFrameEventTruncates(t *testing.T) {
	small := NewFrameEvent([]byte{1, 2, 3}, 4)
	if small.Size != 7 || small.Truncated || len(small.Data) != 3 {
		t.Errorf("small frame: got %+v", *small)
	}

	big := NewFrameEvent(make([]byte, MaxFrameDataSize+10), 0)
	if !big.Truncated {
		t.Error("big frame should be truncated")
	}
	if len(big.Data) != MaxFrameDataSize {
		t.Errorf("big frame data: got %d bytes, want %d", len(big.Data), MaxFrameDataSize)
	}
	if big.Size != MaxFrameDataSize+10 {
		t.Errorf("big frame size: got %d, want %d", big.Size, MaxFrameDataSize+10)
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{DirectionNone.String(), "-"},
		{Direction(9).String(), "UNKNOWN"},
		{LayerTransport.String(), "TRANSPORT"},
		{LayerMessage.String(), "MESSAGE"},
		{LayerTransaction.String(), "TRANSACTION"},
		{CategoryMessage.String(), "MESSAGE"},
		{CategoryState.String(), "STATE"},
		{CategoryError.String(), "ERROR"},
		{Category(9).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
