package exchange

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/coapstack/coap-go/pkg/coap"
	"github.com/coapstack/coap-go/pkg/log"
	"github.com/coapstack/coap-go/pkg/transaction"
	"github.com/coapstack/coap-go/pkg/transport"
)

// DefaultTokenLength is the size of generated tokens.
const DefaultTokenLength = 4

// RequestHandler serves an incoming request. It returns the response to
// send, with at least Code set; type, message ID, token and remote are
// filled in by the engine. Returning nil acknowledges a CON request with
// an empty ACK and sends nothing for NON.
type RequestHandler func(req *coap.Packet) *coap.Packet

// Config configures an Engine.
type Config struct {
	// MaxEndpointQueueSize limits transactions per remote endpoint.
	// Zero leaves the queue unbounded.
	MaxEndpointQueueSize int

	// Logger for operational logging (default: slog.Default()).
	Logger *slog.Logger

	// ProtocolLogger captures packets and transaction state changes
	// (optional).
	ProtocolLogger log.Logger

	// SessionID tags protocol events. A random UUID is used when empty.
	SessionID string

	// RequestHandler serves incoming requests. Without one, CON requests
	// are rejected with RST.
	RequestHandler RequestHandler
}

// SendOptions controls admission of an outgoing request.
type SendOptions struct {
	Priority transaction.Priority

	// Continuation marks a follow-up block of an admitted block-wise
	// transfer; it bypasses the endpoint queue limit.
	Continuation bool
}

// Engine sends requests, correlates responses and serves requests for one
// local endpoint.
type Engine struct {
	conn    transport.Connector
	codec   coap.Codec
	manager *transaction.Manager

	logger      *slog.Logger
	protoLogger log.Logger
	sessionID   string
	handler     RequestHandler

	nextMID atomic.Uint32

	mu      sync.Mutex
	started bool
	closed  bool
	closers []io.Closer
}

// New creates an engine over conn. The connector is started by Start and
// closed by Close.
func New(conn transport.Connector, codec coap.Codec, config Config) (*Engine, error) {
	if conn == nil || codec == nil {
		return nil, errors.New("exchange: connector and codec are required")
	}

	manager := transaction.NewManager()
	if config.MaxEndpointQueueSize != 0 {
		if err := manager.SetMaximumEndpointQueueSize(config.MaxEndpointQueueSize); err != nil {
			return nil, err
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	manager.SetLogger(logger)
	if config.ProtocolLogger != nil {
		manager.SetProtocolLogger(config.ProtocolLogger, sessionID)
	}

	e := &Engine{
		conn:        conn,
		codec:       codec,
		manager:     manager,
		logger:      logger.With("session", sessionID),
		protoLogger: config.ProtocolLogger,
		sessionID:   sessionID,
		handler:     config.RequestHandler,
	}
	e.nextMID.Store(rand.Uint32N(1 << 16))
	return e, nil
}

// Start starts the connector and begins handling inbound messages.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if e.started {
		e.mu.Unlock()
		return transport.ErrAlreadyStarted
	}
	e.started = true
	e.mu.Unlock()

	if err := e.conn.Start(ctx, e.handleInbound); err != nil {
		return fmt.Errorf("start connector: %w", err)
	}
	e.logger.Info("engine started", "local", e.conn.LocalAddr())
	return nil
}

// Manager exposes the transaction manager for inspection.
func (e *Engine) Manager() *transaction.Manager {
	return e.manager
}

// SessionID returns the identifier used in protocol events.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// LocalAddr returns the connector's local address.
func (e *Engine) LocalAddr() net.Addr {
	return e.conn.LocalAddr()
}

// Send admits a confirmable request and sends it once it reaches the head
// of its endpoint queue. cb receives the response or the failure.
//
// The request is copied; a message ID is assigned and, when the request
// has no token, a random one is generated so separate responses can be
// matched. A full endpoint queue returns an error matching
// transaction.ErrTooManyRequestsForEndpoint and cb is never called.
func (e *Engine) Send(req *coap.Packet, opts SendOptions, cb transaction.Callback) (*transaction.Transaction, error) {
	if req.Type != coap.Confirmable {
		return nil, ErrNotConfirmable
	}
	if !req.IsRequest() {
		return nil, fmt.Errorf("%w: %s", ErrNotRequest, req.Code)
	}

	p := *req
	p.MessageID = e.nextMessageID()
	if p.Token.IsEmpty() {
		p.Token = newToken()
	}
	tx := transaction.New(&p, opts.Priority, cb)

	// Admission is serialized with Close so that Drain sees every admitted
	// transaction.
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	ready, err := e.manager.Add(tx, opts.Continuation)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if ready {
		e.dispatch(tx)
	} else {
		e.logger.Debug("request queued", "remote", p.Remote, "mid", p.MessageID,
			"depth", e.manager.EndpointQueueLength(p.Remote))
	}
	return tx, nil
}

// Request sends req and waits for its outcome. When ctx ends first, the
// transaction is cancelled and ctx.Err() is returned.
func (e *Engine) Request(ctx context.Context, req *coap.Packet, opts SendOptions) (*coap.Packet, error) {
	type result struct {
		resp *coap.Packet
		err  error
	}
	done := make(chan result, 1)

	tx, err := e.Send(req, opts, func(resp *coap.Packet, err error) {
		done <- result{resp: resp, err: err}
	})
	if err != nil {
		return nil, err
	}

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		if !e.Cancel(tx, ctx.Err()) {
			// Completion won the race; its outcome is already on its way.
			r := <-done
			return r.resp, r.err
		}
		return nil, ctx.Err()
	}
}

// Cancel abandons tx, whether it is still queued or already sent, and
// completes it with cause (ErrCancelled when nil). It reports whether this
// call delivered the outcome; false means the transaction had already
// completed.
func (e *Engine) Cancel(tx *transaction.Transaction, cause error) bool {
	if cause == nil {
		cause = ErrCancelled
	}

	id := tx.ID()
	if _, locked := e.manager.RemoveAndLock(id); !locked && !e.manager.RemoveIfPending(id) {
		return false
	}

	delivered := tx.Complete(nil, cause)
	// A pending transaction is already gone; the fallback then yields the
	// current head, which may need sending.
	next, ok := e.manager.UnlockOrRemoveAndGetNext(id)
	e.logger.Debug("request cancelled", "remote", id.Remote, "mid", id.MessageID, "cause", cause)
	if ok {
		e.dispatch(next)
	}
	return delivered
}

// Close stops the connector and completes every outstanding transaction
// with ErrEngineClosed. It waits for inbound handling to finish, so it
// must not be called from a callback.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	closers := e.closers
	e.mu.Unlock()

	err := e.conn.Close()
	if w, ok := e.conn.(interface{ Wait() }); ok {
		// Inbound handlers may still be logging; let them finish first.
		w.Wait()
	}

	drained := e.manager.Drain()
	for _, tx := range drained {
		tx.Complete(nil, ErrEngineClosed)
	}
	if len(drained) > 0 {
		e.logger.Info("engine closed with outstanding requests", "count", len(drained))
	}

	for _, c := range closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// dispatch sends tx if it is the pending head of its queue. A send failure
// completes tx with the error and moves on to the next queued request.
func (e *Engine) dispatch(tx *transaction.Transaction) {
	for tx != nil {
		if !e.manager.Activate(tx.ID()) {
			return
		}

		err := e.sendPacket(tx.Request())
		if err == nil {
			return
		}

		e.logger.Warn("request send failed", "remote", tx.ID().Remote, "mid", tx.ID().MessageID, "error", err)
		tx = e.complete(tx.ID(), nil, err)
	}
}

// complete runs the completion handshake for an active transaction and
// returns the next queued transaction for the endpoint, or nil. Unknown or
// inactive IDs are ignored.
func (e *Engine) complete(id transaction.ID, resp *coap.Packet, err error) *transaction.Transaction {
	tx, ok := e.manager.RemoveAndLock(id)
	if !ok {
		return nil
	}

	tx.Complete(resp, err)

	next, ok := e.manager.UnlockOrRemoveAndGetNext(id)
	if !ok {
		return nil
	}
	return next
}

func (e *Engine) sendPacket(p *coap.Packet) error {
	data, err := e.codec.Encode(p)
	if err != nil {
		e.logError(p.Remote, fmt.Sprintf("encode %s", p), err)
		return fmt.Errorf("encode: %w", err)
	}
	if err := e.conn.Send(p.Remote, data); err != nil {
		e.logError(p.Remote, fmt.Sprintf("send %s", p), err)
		return err
	}
	e.logPacket(p, log.DirectionOut)
	return nil
}

func (e *Engine) nextMessageID() uint16 {
	return uint16(e.nextMID.Add(1))
}

func newToken() coap.Token {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], rand.Uint64())
	return coap.Token(b[:DefaultTokenLength])
}

func (e *Engine) logPacket(p *coap.Packet, direction log.Direction) {
	if e.protoLogger == nil {
		return
	}
	e.protoLogger.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  e.sessionID,
		Direction:  direction,
		Layer:      log.LayerMessage,
		Category:   log.CategoryMessage,
		RemoteAddr: p.Remote.String(),
		Packet:     log.NewPacketEvent(p),
	})
}

func (e *Engine) logError(remote netip.AddrPort, op string, err error) {
	if e.protoLogger == nil {
		return
	}
	e.protoLogger.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  e.sessionID,
		Direction:  log.DirectionNone,
		Layer:      log.LayerMessage,
		Category:   log.CategoryError,
		RemoteAddr: remote.String(),
		Error: &log.ErrorEventData{
			Layer:   log.LayerMessage,
			Message: err.Error(),
			Context: op,
		},
	})
}
