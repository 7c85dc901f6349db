// Package log provides structured protocol capture for the CoAP stack.
//
// This package defines the Logger interface and Event types for recording
// what happens to packets and transactions at each layer. It is separate
// from operational logging (slog): protocol capture produces a complete
// machine-readable trace that coap-txlog can view and summarise.
//
// # Basic Usage
//
//	// During development: print events via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// In production: append to a binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/coap/node.clog")
//
//	// Both at once
//	cfg.ProtocolLogger = log.NewMultiLogger(slogAdapter, fileLogger)
//
// # Event Types
//
//   - Transport: raw datagrams and frames (FrameEvent)
//   - Message: decoded CoAP headers (PacketEvent)
//   - Transaction: lifecycle transitions (TransactionEvent)
//
// Errors at any layer are recorded with ErrorEventData.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys,
// conventionally using the .clog extension.
package log
