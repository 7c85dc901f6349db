package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/coapstack/coap-go/pkg/coap"
)

func logThroughAdapter(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsPacketEvent(t *testing.T) {
	entry := logThroughAdapter(t, Event{
		Timestamp:  time.Now(),
		SessionID:  "session-123",
		Direction:  DirectionIn,
		Layer:      LayerMessage,
		Category:   CategoryMessage,
		RemoteAddr: "127.0.0.1:5683",
		Packet: NewPacketEvent(&coap.Packet{
			Type:      coap.Acknowledgement,
			Code:      coap.Content,
			MessageID: 42,
			Token:     coap.Token{0xca, 0xfe},
		}),
	})

	want := map[string]any{
		"msg":       "protocol",
		"session":   "session-123",
		"direction": "IN",
		"layer":     "MESSAGE",
		"remote":    "127.0.0.1:5683",
		"type":      "ACK",
		"code":      "2.05",
		"mid":       float64(42),
		"token":     "cafe",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %v", k, entry[k], v)
		}
	}
}

func TestSlogAdapterLogsTransactionEvent(t *testing.T) {
	entry := logThroughAdapter(t, Event{
		Timestamp: time.Now(),
		SessionID: "session-123",
		Direction: DirectionNone,
		Layer:     LayerTransaction,
		Category:  CategoryState,
		Transaction: &TransactionEvent{
			MessageID:  7,
			Priority:   "LOW",
			OldState:   "PENDING",
			NewState:   "ACTIVE",
			QueueDepth: 2,
		},
	})

	if entry["new_state"] != "ACTIVE" {
		t.Errorf("new_state: got %v", entry["new_state"])
	}
	if entry["priority"] != "LOW" {
		t.Errorf("priority: got %v", entry["priority"])
	}
	if entry["queue_depth"] != float64(2) {
		t.Errorf("queue_depth: got %v", entry["queue_depth"])
	}
	if _, ok := entry["reason"]; ok {
		t.Error("empty reason should be omitted")
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(Event{Timestamp: time.Now()})

	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %q", buf.String())
	}
}
