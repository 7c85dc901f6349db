package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/coapstack/coap-go/pkg/log"
)

// UDPConfig configures a UDPConnector.
type UDPConfig struct {
	// Address to bind (e.g., "127.0.0.1:5683" or ":0").
	Address string

	// MaxMessageSize bounds datagrams in both directions (default: 1152).
	MaxMessageSize int

	// Logger for operational logging (default: slog.Default()).
	Logger *slog.Logger

	// ProtocolLogger captures every datagram (optional).
	ProtocolLogger log.Logger

	// SessionID tags protocol events.
	SessionID string
}

// UDPConnector carries one CoAP message per datagram over a single socket.
type UDPConnector struct {
	config UDPConfig
	logger *slog.Logger

	mu      sync.Mutex
	conn    *net.UDPConn
	stop    func() bool
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// NewUDPConnector creates an unbound UDP connector.
func NewUDPConnector(config UDPConfig) *UDPConnector {
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UDPConnector{config: config, logger: logger}
}

// Start binds the socket and starts the read loop.
func (c *UDPConnector) Start(ctx context.Context, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}

	addr, err := net.ResolveUDPAddr("udp", c.config.Address)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", c.config.Address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	c.conn = conn
	c.started = true

	c.logger.Info("udp connector started", "local", conn.LocalAddr())

	c.stop = context.AfterFunc(ctx, func() { c.Close() })

	c.wg.Add(1)
	go c.readLoop(conn, h)
	return nil
}

// Send writes data as a single datagram.
func (c *UDPConnector) Send(remote netip.AddrPort, data []byte) error {
	if len(data) > c.config.MaxMessageSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), c.config.MaxMessageSize)
	}

	c.mu.Lock()
	conn, closed := c.conn, c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotStarted
	}

	if _, err := conn.WriteToUDPAddrPort(data, remote); err != nil {
		return fmt.Errorf("send to %s: %w", remote, err)
	}
	c.logFrame(remote, data, log.DirectionOut)
	return nil
}

// LocalAddr returns the bound address.
func (c *UDPConnector) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
}

// Close closes the socket. The read loop exits shortly after; use Wait to
// block until it has.
func (c *UDPConnector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn, stop := c.conn, c.stop
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	var err error
	if conn != nil {
		err = conn.Close()
	}
	return err
}

// Wait blocks until the connector's goroutines have exited after Close.
func (c *UDPConnector) Wait() {
	c.wg.Wait()
}

func (c *UDPConnector) readLoop(conn *net.UDPConn, h Handler) {
	defer c.wg.Done()

	// One extra byte detects datagrams larger than the limit.
	buf := make([]byte, c.config.MaxMessageSize+1)
	for {
		n, remote, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			c.logger.Warn("udp read failed", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		remote = netip.AddrPortFrom(remote.Addr().Unmap(), remote.Port())

		if n > c.config.MaxMessageSize {
			c.logger.Warn("dropping oversized datagram", "remote", remote, "limit", c.config.MaxMessageSize)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		c.logFrame(remote, data, log.DirectionIn)
		h(remote, data)
	}
}

func (c *UDPConnector) logFrame(remote netip.AddrPort, data []byte, direction log.Direction) {
	if c.config.ProtocolLogger == nil {
		return
	}
	c.config.ProtocolLogger.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  c.config.SessionID,
		Direction:  direction,
		Layer:      log.LayerTransport,
		Category:   log.CategoryMessage,
		LocalAddr:  c.localString(),
		RemoteAddr: remote.String(),
		Frame:      log.NewFrameEvent(data, 0),
	})
}

func (c *UDPConnector) localString() string {
	if addr := c.LocalAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
