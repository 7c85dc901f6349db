package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coapstack/coap-go/pkg/log"
)

// DefaultDialTimeout bounds connection setup when the caller gives no deadline.
const DefaultDialTimeout = 10 * time.Second

// TCPConfig configures a TCPClientConnector.
type TCPConfig struct {
	// LocalAddress optionally binds outgoing connections (e.g., "127.0.0.1:0").
	LocalAddress string

	// MaxMessageSize bounds frames in both directions (default: 1152).
	MaxMessageSize int

	// IdleTimeout closes connections with no traffic for this long.
	// Zero keeps connections open until Close.
	IdleTimeout time.Duration

	// DialTimeout bounds lazy dials from Send (default: 10s).
	DialTimeout time.Duration

	// Logger for operational logging (default: slog.Default()).
	Logger *slog.Logger

	// ProtocolLogger captures every frame (optional).
	ProtocolLogger log.Logger

	// SessionID tags protocol events.
	SessionID string
}

// TCPClientConnector keeps one framed TCP connection per remote endpoint.
// Connections are dialed on the first Send to a remote, or added up front
// with Connect or AddConn.
type TCPClientConnector struct {
	config TCPConfig
	logger *slog.Logger

	mu      sync.Mutex
	conns   map[netip.AddrPort]*tcpConn
	handler Handler
	stop    func() bool
	done    chan struct{}
	started bool
	closed  bool

	wg sync.WaitGroup
}

type tcpConn struct {
	remote     netip.AddrPort
	conn       net.Conn
	framer     *Framer
	lastActive atomic.Int64
	closeOnce  sync.Once
}

func (c *tcpConn) touch() {
	c.lastActive.Store(time.Now().UnixNano())
}

func (c *tcpConn) idleSince() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

func (c *tcpConn) close() {
	c.closeOnce.Do(func() { c.conn.Close() })
}

// NewTCPClientConnector creates a connector with no connections.
func NewTCPClientConnector(config TCPConfig) *TCPClientConnector {
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TCPClientConnector{
		config: config,
		logger: logger,
		conns:  make(map[netip.AddrPort]*tcpConn),
		done:   make(chan struct{}),
	}
}

// Start registers the inbound handler and starts idle cleanup.
func (c *TCPClientConnector) Start(ctx context.Context, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}
	c.handler = h
	c.started = true
	c.stop = context.AfterFunc(ctx, func() { c.Close() })

	if c.config.IdleTimeout > 0 {
		c.wg.Add(1)
		go c.idleLoop()
	}
	return nil
}

// Connect dials remote unless a connection already exists and returns the
// local address of the connection.
func (c *TCPClientConnector) Connect(ctx context.Context, remote netip.AddrPort) (net.Addr, error) {
	tc, err := c.connFor(ctx, remote)
	if err != nil {
		return nil, err
	}
	return tc.conn.LocalAddr(), nil
}

// AddConn adopts an already connected socket for remote, replacing any
// existing connection to it.
func (c *TCPClientConnector) AddConn(remote netip.AddrPort, conn net.Conn) error {
	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	old := c.conns[remote]
	c.newConnLocked(remote, conn)
	c.mu.Unlock()

	if old != nil {
		old.close()
	}
	return nil
}

// Send frames data and writes it to the connection for remote, dialing
// first if needed. A failed write drops the connection; the next Send
// dials again.
func (c *TCPClientConnector) Send(remote netip.AddrPort, data []byte) error {
	if len(data) > c.config.MaxMessageSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), c.config.MaxMessageSize)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.DialTimeout)
	defer cancel()

	tc, err := c.connFor(ctx, remote)
	if err != nil {
		return err
	}

	if err := tc.framer.WriteFrame(data); err != nil {
		c.logger.Debug("tcp write failed, dropping connection", "remote", remote, "error", err)
		c.drop(tc)
		return fmt.Errorf("send to %s: %w", remote, err)
	}
	tc.touch()
	return nil
}

// LocalAddr returns the local address of one of the open connections, or
// nil when there are none.
func (c *TCPClientConnector) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tc := range c.conns {
		return tc.conn.LocalAddr()
	}
	return nil
}

// ConnectionCount returns the number of open connections.
func (c *TCPClientConnector) ConnectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns)
}

// Close closes every connection and waits for the read loops to exit.
func (c *TCPClientConnector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	stop := c.stop
	conns := c.conns
	c.conns = make(map[netip.AddrPort]*tcpConn)
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	for _, tc := range conns {
		tc.close()
	}
	c.wg.Wait()
	return nil
}

func (c *TCPClientConnector) usableLocked() error {
	if c.closed {
		return ErrClosed
	}
	if !c.started {
		return ErrNotStarted
	}
	return nil
}

// connFor returns the connection for remote, dialing it if needed.
// Concurrent dials to the same remote keep the first one registered.
func (c *TCPClientConnector) connFor(ctx context.Context, remote netip.AddrPort) (*tcpConn, error) {
	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if tc := c.conns[remote]; tc != nil {
		c.mu.Unlock()
		return tc, nil
	}
	c.mu.Unlock()

	dialer := &net.Dialer{}
	if c.config.LocalAddress != "" {
		local, err := net.ResolveTCPAddr("tcp", c.config.LocalAddress)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", c.config.LocalAddress, err)
		}
		dialer.LocalAddr = local
	}

	c.logger.Debug("tcp dialing", "remote", remote)
	conn, err := dialer.DialContext(ctx, "tcp", remote.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, remote, err)
	}

	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		conn.Close()
		return nil, err
	}
	if tc := c.conns[remote]; tc != nil {
		c.mu.Unlock()
		conn.Close()
		return tc, nil
	}
	tc := c.newConnLocked(remote, conn)
	c.mu.Unlock()

	c.logger.Info("tcp connected", "remote", remote, "local", conn.LocalAddr())
	return tc, nil
}

// newConnLocked registers conn and starts its read loop. Must hold c.mu.
func (c *TCPClientConnector) newConnLocked(remote netip.AddrPort, conn net.Conn) *tcpConn {
	framer := NewFramerWithMaxSize(conn, uint32(c.config.MaxMessageSize))
	if c.config.ProtocolLogger != nil {
		framer.SetLogger(c.config.ProtocolLogger, c.config.SessionID, remote.String())
	}
	tc := &tcpConn{remote: remote, conn: conn, framer: framer}
	tc.touch()
	c.conns[remote] = tc

	c.wg.Add(1)
	go c.readLoop(tc, c.handler)
	return tc
}

func (c *TCPClientConnector) readLoop(tc *tcpConn, h Handler) {
	defer c.wg.Done()
	defer c.drop(tc)

	for {
		data, err := tc.framer.ReadFrame()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				c.logger.Debug("tcp connection closed", "remote", tc.remote)
			default:
				c.logger.Warn("tcp read failed", "remote", tc.remote, "error", err)
			}
			return
		}
		tc.touch()
		h(tc.remote, data)
	}
}

// drop closes tc and forgets it if it is still the registered connection.
func (c *TCPClientConnector) drop(tc *tcpConn) {
	c.mu.Lock()
	if c.conns[tc.remote] == tc {
		delete(c.conns, tc.remote)
	}
	c.mu.Unlock()
	tc.close()
}

func (c *TCPClientConnector) idleLoop() {
	defer c.wg.Done()

	interval := c.config.IdleTimeout / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.closeIdle(time.Now())
		}
	}
}

func (c *TCPClientConnector) closeIdle(now time.Time) {
	var idle []*tcpConn
	c.mu.Lock()
	for remote, tc := range c.conns {
		if now.Sub(tc.idleSince()) >= c.config.IdleTimeout {
			delete(c.conns, remote)
			idle = append(idle, tc)
		}
	}
	c.mu.Unlock()

	for _, tc := range idle {
		c.logger.Debug("closing idle tcp connection", "remote", tc.remote)
		tc.close()
	}
}
