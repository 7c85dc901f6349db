package exchange

import (
	"fmt"
	"io"
	"net"
	"os"

	"github.com/google/uuid"

	"github.com/coapstack/coap-go/pkg/coap"
	"github.com/coapstack/coap-go/pkg/config"
	"github.com/coapstack/coap-go/pkg/log"
	"github.com/coapstack/coap-go/pkg/transport"
)

// Open builds an engine from configuration: the connector selected by
// transport.network, the operational logger on stderr, and the protocol
// log file when logging.protocol_log is set, rotated when
// logging.protocol_log_rotation asks for it. The log file is closed by
// Close.
func Open(cfg config.Config, codec coap.Codec, handler RequestHandler) (*Engine, error) {
	return open(cfg, codec, handler, os.Stderr)
}

func open(cfg config.Config, codec coap.Codec, handler RequestHandler, logOut io.Writer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logging.NewLogger(logOut)
	sessionID := uuid.New().String()

	var protoLogger log.Logger
	var closers []io.Closer
	if path := cfg.Logging.ProtocolLog; path != "" {
		var fl *log.FileLogger
		if r := cfg.Logging.Rotation; r.Enabled() {
			fl = log.NewRotatingFileLogger(path, log.Rotation{
				MaxSizeMB:  r.MaxSizeMB,
				MaxBackups: r.MaxBackups,
				MaxAgeDays: r.MaxAgeDays,
				Compress:   r.Compress,
			})
		} else {
			var err error
			if fl, err = log.NewFileLogger(path); err != nil {
				return nil, fmt.Errorf("open protocol log: %w", err)
			}
		}
		protoLogger = fl
		closers = append(closers, fl)
	}

	var conn transport.Connector
	switch cfg.Transport.Network {
	case config.NetworkTCP:
		local, err := tcpLocalAddress(cfg.Transport.Listen)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		conn = transport.NewTCPClientConnector(transport.TCPConfig{
			LocalAddress:   local,
			MaxMessageSize: cfg.Transport.MaxMessageSize,
			IdleTimeout:    cfg.Transport.IdleTimeout,
			DialTimeout:    cfg.Transport.DialTimeout,
			Logger:         logger,
			ProtocolLogger: protoLogger,
			SessionID:      sessionID,
		})
	default:
		conn = transport.NewUDPConnector(transport.UDPConfig{
			Address:        cfg.Transport.Listen,
			MaxMessageSize: cfg.Transport.MaxMessageSize,
			Logger:         logger,
			ProtocolLogger: protoLogger,
			SessionID:      sessionID,
		})
	}

	e, err := New(conn, codec, Config{
		MaxEndpointQueueSize: cfg.Transactions.MaxEndpointQueueSize,
		Logger:               logger,
		ProtocolLogger:       protoLogger,
		SessionID:            sessionID,
		RequestHandler:       handler,
	})
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	e.closers = closers
	return e, nil
}

// tcpLocalAddress keeps only the host of the listen address. Each outgoing
// connection needs its own local port, so a fixed one would allow a single
// remote.
func tcpLocalAddress(listen string) (string, error) {
	if listen == "" {
		return "", nil
	}
	host, _, err := net.SplitHostPort(listen)
	if err != nil {
		return "", fmt.Errorf("transport.listen: %w", err)
	}
	if host == "" {
		return "", nil
	}
	return net.JoinHostPort(host, "0"), nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}
