package commands

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coapstack/coap-go/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	reader, err := log.NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	var events []log.Event
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestFilterByRemote(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		stateEvent(ts, testRemote, 1, "", "PENDING", "ready", 1),
		stateEvent(ts, "192.0.2.11:5683", 2, "", "PENDING", "ready", 1),
		stateEvent(ts, testRemote, 1, "PENDING", "ACTIVE", "sent", 1),
	})
	out := filepath.Join(t.TempDir(), "filtered.clog")

	var buf bytes.Buffer
	require.NoError(t, RunFilter(path, FilterOptions{Output: out, Remote: testRemote}, &buf))
	assert.Contains(t, buf.String(), "Filtered 2 events")

	events := readAll(t, out)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, testRemote, ev.RemoteAddr)
	}
}

func TestFilterByTimeRangeAndLayer(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		stateEvent(base, testRemote, 1, "", "PENDING", "ready", 1),
		stateEvent(base.Add(time.Hour), testRemote, 2, "", "PENDING", "ready", 1),
		{Timestamp: base.Add(time.Hour), Layer: log.LayerTransport, Direction: log.DirectionOut, Frame: &log.FrameEvent{Size: 4}},
		stateEvent(base.Add(2*time.Hour), testRemote, 3, "", "PENDING", "ready", 1),
	})
	out := filepath.Join(t.TempDir(), "filtered.clog")

	err := RunFilter(path, FilterOptions{
		Output:    out,
		TimeStart: "2026-03-02T09:30:00Z",
		TimeEnd:   "2026-03-02T10:30:00Z",
		Layer:     "transaction",
	}, io.Discard)
	require.NoError(t, err)

	events := readAll(t, out)
	require.Len(t, events, 1)
	assert.Equal(t, uint16(2), events[0].Transaction.MessageID)
}

func TestFilterInvalidOptions(t *testing.T) {
	path := createTestLogFile(t, nil)
	out := filepath.Join(t.TempDir(), "filtered.clog")

	for name, opts := range map[string]FilterOptions{
		"time-start": {TimeStart: "yesterday"},
		"time-end":   {TimeEnd: "2026-13-01"},
		"layer":      {Layer: "service"},
		"direction":  {Direction: "up"},
		"category":   {Category: "control"},
	} {
		t.Run(name, func(t *testing.T) {
			opts.Output = out
			assert.Error(t, RunFilter(path, opts, io.Discard))
		})
	}
}
