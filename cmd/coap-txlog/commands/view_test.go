package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coapstack/coap-go/pkg/coap"
	"github.com/coapstack/coap-go/pkg/log"
)

const (
	testSession = "5f0c2a9e-1b7d-4c3e-9a61-2d8f0e4b7c10"
	testRemote  = "192.0.2.10:5683"
)

// createTestLogFile writes events to a fresh log file and returns its path.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.clog")
	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)
	for _, ev := range events {
		logger.Log(ev)
	}
	require.NoError(t, logger.Close())
	return path
}

func stateEvent(ts time.Time, remote string, mid uint16, from, to, reason string, depth int) log.Event {
	return log.Event{
		Timestamp:  ts,
		SessionID:  testSession,
		Direction:  log.DirectionNone,
		Layer:      log.LayerTransaction,
		Category:   log.CategoryState,
		RemoteAddr: remote,
		Transaction: &log.TransactionEvent{
			MessageID:  mid,
			Priority:   "NORMAL",
			OldState:   from,
			NewState:   to,
			Reason:     reason,
			QueueDepth: depth,
		},
	}
}

func TestFormatFrameEvent(t *testing.T) {
	event := log.Event{
		Timestamp:  time.Date(2026, 3, 2, 9, 30, 0, 125000000, time.UTC),
		SessionID:  testSession,
		Direction:  log.DirectionOut,
		Layer:      log.LayerTransport,
		Category:   log.CategoryMessage,
		RemoteAddr: testRemote,
		Frame:      &log.FrameEvent{Size: 6, Data: []byte{0x00, 0x00, 0x00, 0x02, 0xab, 0xcd}, Truncated: true},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	out := buf.String()

	assert.Contains(t, out, "2026-03-02T09:30:00.125000Z [5f0c2a9e] OUT TRANSPORT Frame 192.0.2.10:5683")
	assert.Contains(t, out, "Size: 6 bytes")
	assert.Contains(t, out, "Data: 00000002abcd (truncated)")
}

func TestFormatPacketEvent(t *testing.T) {
	event := log.Event{
		Timestamp:  time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		SessionID:  testSession,
		Direction:  log.DirectionIn,
		Layer:      log.LayerMessage,
		Category:   log.CategoryMessage,
		RemoteAddr: testRemote,
		Packet: &log.PacketEvent{
			Type:        coap.Acknowledgement,
			Code:        coap.Content,
			MessageID:   4711,
			Token:       []byte{0xde, 0xad, 0xbe, 0xef},
			PayloadSize: 12,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	out := buf.String()

	assert.Contains(t, out, "IN  MESSAGE ACK 2.05")
	assert.Contains(t, out, "MessageID: 4711")
	assert.Contains(t, out, "Token: deadbeef")
	assert.Contains(t, out, "Payload: 12 bytes")
}

func TestFormatTransactionEvent(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	formatEvent(&buf, stateEvent(ts, testRemote, 9, "", "PENDING", "queued", 3))
	out := buf.String()
	assert.Contains(t, out, "-   TRANSACTION State")
	assert.Contains(t, out, "MessageID: 9  Priority: NORMAL")
	assert.Contains(t, out, "  -> PENDING\n")
	assert.Contains(t, out, "Reason: queued")
	assert.Contains(t, out, "Queue: 3")

	buf.Reset()
	formatEvent(&buf, stateEvent(ts, testRemote, 9, "ACTIVE", "LOCKED", "completing", 1))
	assert.Contains(t, buf.String(), "ACTIVE -> LOCKED")
}

func TestFormatErrorEvent(t *testing.T) {
	event := log.Event{
		Timestamp: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		SessionID: "short",
		Direction: log.DirectionIn,
		Layer:     log.LayerMessage,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Layer: log.LayerMessage, Message: "truncated header", Context: "decode"},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	out := buf.String()

	assert.Contains(t, out, "[short]")
	assert.Contains(t, out, "Error")
	assert.Contains(t, out, "Message: truncated header")
	assert.Contains(t, out, "Context: decode")
}

func TestFormatUnknownEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{Timestamp: time.Now()})
	assert.Contains(t, buf.String(), "Unknown")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0.500us", formatDuration(500*time.Nanosecond))
	assert.Equal(t, "2.333ms", formatDuration(2333*time.Microsecond))
	assert.Equal(t, "1.500s", formatDuration(1500*time.Millisecond))
}

func TestParseFlags(t *testing.T) {
	layer, err := ParseLayerFlag("Transaction")
	require.NoError(t, err)
	assert.Equal(t, log.LayerTransaction, layer)
	_, err = ParseLayerFlag("wire")
	assert.Error(t, err)

	dir, err := ParseDirectionFlag("OUT")
	require.NoError(t, err)
	assert.Equal(t, log.DirectionOut, dir)
	dir, err = ParseDirectionFlag("none")
	require.NoError(t, err)
	assert.Equal(t, log.DirectionNone, dir)
	_, err = ParseDirectionFlag("sideways")
	assert.Error(t, err)

	cat, err := ParseCategoryFlag("state")
	require.NoError(t, err)
	assert.Equal(t, log.CategoryState, cat)
	_, err = ParseCategoryFlag("snapshot")
	assert.Error(t, err)
}

func TestRunViewFilters(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	events := []log.Event{
		stateEvent(ts, testRemote, 1, "", "PENDING", "ready", 1),
		stateEvent(ts, "192.0.2.11:5683", 2, "", "PENDING", "ready", 1),
		{
			Timestamp:  ts,
			SessionID:  testSession,
			Direction:  log.DirectionOut,
			Layer:      log.LayerMessage,
			Category:   log.CategoryMessage,
			RemoteAddr: testRemote,
			Packet:     &log.PacketEvent{Type: coap.Confirmable, Code: coap.GET, MessageID: 1},
		},
	}
	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	require.NoError(t, RunView(path, ViewFilter{}, &buf))
	assert.Equal(t, 3, strings.Count(buf.String(), "[5f0c2a9e]"))

	buf.Reset()
	require.NoError(t, RunView(path, ViewFilter{Remote: testRemote}, &buf))
	assert.Equal(t, 2, strings.Count(buf.String(), testRemote))
	assert.NotContains(t, buf.String(), "192.0.2.11")

	cat := log.CategoryMessage
	buf.Reset()
	require.NoError(t, RunView(path, ViewFilter{Category: &cat}, &buf))
	assert.Contains(t, buf.String(), "CON GET")
	assert.NotContains(t, buf.String(), "TRANSACTION")

	layer := log.LayerTransaction
	buf.Reset()
	require.NoError(t, RunView(path, ViewFilter{Layer: &layer, SessionID: "other"}, &buf))
	assert.Empty(t, buf.String())
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "missing.clog"), ViewFilter{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to open log file")
}
