package log

import (
	"context"
	"log/slog"

	"github.com/coapstack/coap-go/pkg/coap"
)

// SlogAdapter writes protocol events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event as a single "protocol" record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Packet != nil:
		attrs = append(attrs,
			slog.String("type", event.Packet.Type.String()),
			slog.String("code", event.Packet.Code.String()),
			slog.Uint64("mid", uint64(event.Packet.MessageID)),
		)
		if len(event.Packet.Token) > 0 {
			attrs = append(attrs, slog.String("token", coap.Token(event.Packet.Token).String()))
		}
	case event.Transaction != nil:
		tx := event.Transaction
		attrs = append(attrs,
			slog.Uint64("mid", uint64(tx.MessageID)),
			slog.String("old_state", tx.OldState),
			slog.String("new_state", tx.NewState),
			slog.Int("queue_depth", tx.QueueDepth),
		)
		if tx.Priority != "" {
			attrs = append(attrs, slog.String("priority", tx.Priority))
		}
		if tx.Reason != "" {
			attrs = append(attrs, slog.String("reason", tx.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
