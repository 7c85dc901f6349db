package transaction

import (
	"fmt"
	"log/slog"
	"math"
	"net/netip"
	"sync"
	"time"

	"github.com/coapstack/coap-go/pkg/coap"
	"github.com/coapstack/coap-go/pkg/log"
)

// Endpoint queue size limits.
const (
	MinEndpointQueueSize = 1
	MaxEndpointQueueSize = 65536

	// DefaultEndpointQueueSize is effectively unbounded.
	DefaultEndpointQueueSize = math.MaxInt32
)

// Manager tracks transactions per remote endpoint.
//
// A single mutex guards the endpoint map, every queue, and the total count,
// so all operations are linearizable. No operation performs I/O or waits
// on anything but that mutex.
type Manager struct {
	mu sync.Mutex

	queues       map[netip.AddrPort]*endpointQueue
	count        int
	seq          uint64
	maxQueueSize int

	logger      *slog.Logger
	protoLogger log.Logger
	sessionID   string
}

// NewManager creates a manager with an unbounded endpoint queue size.
func NewManager() *Manager {
	return &Manager{
		queues:       make(map[netip.AddrPort]*endpointQueue),
		maxQueueSize: DefaultEndpointQueueSize,
		logger:       slog.Default(),
	}
}

// SetLogger sets the operational logger. Nil restores slog.Default().
func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetProtocolLogger enables capture of state transitions.
// Pass nil to disable.
func (m *Manager) SetProtocolLogger(logger log.Logger, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.protoLogger = logger
	m.sessionID = sessionID
}

// SetMaximumEndpointQueueSize limits the number of transactions admitted
// per endpoint. n must be within [MinEndpointQueueSize, MaxEndpointQueueSize];
// otherwise ErrInvalidQueueSize is returned and nothing changes.
func (m *Manager) SetMaximumEndpointQueueSize(n int) error {
	if n < MinEndpointQueueSize || n > MaxEndpointQueueSize {
		return fmt.Errorf("%w: %d (valid range %d..%d)", ErrInvalidQueueSize, n, MinEndpointQueueSize, MaxEndpointQueueSize)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxQueueSize = n
	return nil
}

// MaximumEndpointQueueSize returns the current per-endpoint limit.
func (m *Manager) MaximumEndpointQueueSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxQueueSize
}

// NumberOfTransactions returns the number of tracked transactions across
// all endpoints.
func (m *Manager) NumberOfTransactions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// EndpointQueueLength returns the number of transactions tracked for remote.
func (m *Manager) EndpointQueueLength(remote netip.AddrPort) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q := m.queues[remote]; q != nil {
		return q.len()
	}
	return 0
}

// Add admits tx to the queue of its remote endpoint and reports whether it
// is now the only member, meaning the caller should send it and call
// Activate. Otherwise it waits behind the current head.
//
// A full queue rejects the admission with *EndpointQueueFullError unless
// continuation is set; block-wise continuations extend an exchange that
// was already admitted and are never throttled.
func (m *Manager) Add(tx *Transaction, continuation bool) (bool, error) {
	m.mu.Lock()

	if tx.state != StatePending {
		m.mu.Unlock()
		return false, fmt.Errorf("%w: %s is %s", ErrTransactionNotPending, tx.id, tx.state)
	}

	q := m.queues[tx.id.Remote]
	if q == nil {
		q = newEndpointQueue(tx.id.Remote)
	} else if q.index(tx.id) >= 0 {
		m.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrDuplicateTransaction, tx.id)
	}

	if !continuation && q.len() >= m.maxQueueSize {
		limit := m.maxQueueSize
		logger := m.logger
		m.mu.Unlock()
		logger.Warn("endpoint queue full", "remote", tx.id.Remote, "limit", limit)
		return false, &EndpointQueueFullError{Remote: tx.id.Remote, Limit: limit}
	}

	m.seq++
	tx.seq = m.seq
	ready := q.len() == 0
	q.insert(tx)
	m.queues[tx.id.Remote] = q
	m.count++

	reason := "queued"
	if ready {
		reason = "ready"
	} else if continuation {
		reason = "continuation"
	}
	ev := m.stateEvent(tx, StatePending, StatePending, reason, q.len())
	m.mu.Unlock()

	m.emit(ev)
	return ready, nil
}

// Activate marks a pending transaction as sent. It succeeds only for the
// head of its queue, since at most one transaction per endpoint may be in
// flight.
func (m *Manager) Activate(id ID) bool {
	m.mu.Lock()

	q := m.queues[id.Remote]
	if q == nil {
		m.mu.Unlock()
		return false
	}
	head := q.head()
	if head.id != id || head.state != StatePending {
		m.mu.Unlock()
		return false
	}

	head.state = StateActive
	ev := m.stateEvent(head, StatePending, StateActive, "sent", q.len())
	m.mu.Unlock()

	m.emit(ev)
	return true
}

// State returns the state of a tracked transaction. Timers use it to skip
// retransmission of locked transactions.
func (m *Manager) State(id ID) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queues[id.Remote]
	if q == nil {
		return StateRemoved, false
	}
	i := q.index(id)
	if i < 0 {
		return StateRemoved, false
	}
	return q.items[i].state, true
}

// RemoveAndLock locks an active transaction while its completion is being
// processed. Unknown and still-pending transactions yield (nil, false) and
// nothing changes. The transaction stays tracked until
// UnlockOrRemoveAndGetNext.
func (m *Manager) RemoveAndLock(id ID) (*Transaction, bool) {
	m.mu.Lock()

	q := m.queues[id.Remote]
	if q == nil {
		m.mu.Unlock()
		return nil, false
	}
	i := q.index(id)
	if i < 0 || q.items[i].state != StateActive {
		m.mu.Unlock()
		return nil, false
	}

	tx := q.items[i]
	tx.state = StateLocked
	ev := m.stateEvent(tx, StateActive, StateLocked, "completing", q.len())
	m.mu.Unlock()

	m.emit(ev)
	return tx, true
}

// UnlockOrRemoveAndGetNext removes the identified transaction, whatever
// its state, and returns the new head of the endpoint queue. The head is
// returned as is; the caller sends and activates it if it is pending.
//
// If the transaction is not tracked, the current head for id.Remote is
// returned without any change. This keeps the call safe after a failed
// RemoveAndLock or a removal that raced with a duplicate packet.
func (m *Manager) UnlockOrRemoveAndGetNext(id ID) (*Transaction, bool) {
	m.mu.Lock()

	q := m.queues[id.Remote]
	if q == nil {
		m.mu.Unlock()
		return nil, false
	}

	i := q.index(id)
	if i < 0 {
		head := q.head()
		m.mu.Unlock()
		return head, head != nil
	}

	tx := q.removeAt(i)
	old := tx.state
	ev := m.remove(tx, q, "completed")
	next := q.head()
	logger := m.logger
	m.mu.Unlock()

	m.emit(ev)
	logger.Debug("transaction removed", "id", id, "state", old)
	return next, next != nil
}

// RemoveIfPending removes a transaction that has not been sent yet and
// reports whether it did. Active, locked and unknown transactions are left
// alone, so a request already on the wire is never withdrawn.
func (m *Manager) RemoveIfPending(id ID) bool {
	m.mu.Lock()

	q := m.queues[id.Remote]
	if q == nil {
		m.mu.Unlock()
		return false
	}
	i := q.index(id)
	if i < 0 || q.items[i].state != StatePending {
		m.mu.Unlock()
		return false
	}

	tx := q.removeAt(i)
	ev := m.remove(tx, q, "cancelled")
	m.mu.Unlock()

	m.emit(ev)
	return true
}

// FindMatchAndRemoveForSeparateResponse finds the active transaction a
// separate response belongs to and removes it. A match requires a
// confirmable response from the same endpoint carrying the request's
// token; requests sent without a token never match. The next queued
// transaction is not promoted.
func (m *Manager) FindMatchAndRemoveForSeparateResponse(p *coap.Packet) (*Transaction, bool) {
	if p.Type != coap.Confirmable || !p.Code.IsResponse() || p.Token.IsEmpty() {
		return nil, false
	}

	m.mu.Lock()

	q := m.queues[p.Remote]
	if q == nil {
		m.mu.Unlock()
		return nil, false
	}

	for i, tx := range q.items {
		if tx.state != StateActive {
			continue
		}
		if tx.request.Token.IsEmpty() || !tx.request.Token.Equal(p.Token) {
			continue
		}
		q.removeAt(i)
		ev := m.remove(tx, q, "separate response")
		m.mu.Unlock()

		m.emit(ev)
		return tx, true
	}

	m.mu.Unlock()
	return nil, false
}

// Drain removes every tracked transaction and returns them in endpoint
// queue order. Used when shutting down.
func (m *Manager) Drain() []*Transaction {
	m.mu.Lock()

	var drained []*Transaction
	var events []*log.Event
	for remote, q := range m.queues {
		for _, tx := range q.items {
			old := tx.state
			tx.state = StateRemoved
			events = append(events, m.stateEvent(tx, old, StateRemoved, "drained", 0))
		}
		drained = append(drained, q.items...)
		delete(m.queues, remote)
	}
	m.count = 0
	m.mu.Unlock()

	for _, ev := range events {
		m.emit(ev)
	}
	return drained
}

// remove finishes removing tx, already taken out of q. Must hold m.mu.
func (m *Manager) remove(tx *Transaction, q *endpointQueue, reason string) *log.Event {
	old := tx.state
	tx.state = StateRemoved
	m.count--
	if q.len() == 0 {
		delete(m.queues, q.remote)
	}
	return m.stateEvent(tx, old, StateRemoved, reason, q.len())
}

// stateEvent builds a transition event, or nil when capture is off.
// Must hold m.mu.
func (m *Manager) stateEvent(tx *Transaction, from, to State, reason string, depth int) *log.Event {
	if m.protoLogger == nil {
		return nil
	}

	// Admission is the only PENDING -> PENDING transition; it has no old state.
	oldState := ""
	if from != to {
		oldState = from.String()
	}

	return &log.Event{
		Timestamp:  time.Now(),
		SessionID:  m.sessionID,
		Direction:  log.DirectionNone,
		Layer:      log.LayerTransaction,
		Category:   log.CategoryState,
		RemoteAddr: tx.id.Remote.String(),
		Transaction: &log.TransactionEvent{
			MessageID:  tx.id.MessageID,
			Token:      tx.request.Token,
			Priority:   tx.priority.String(),
			OldState:   oldState,
			NewState:   to.String(),
			Reason:     reason,
			QueueDepth: depth,
		},
	}
}

// emit forwards ev outside the manager lock.
func (m *Manager) emit(ev *log.Event) {
	if ev == nil {
		return
	}
	m.mu.Lock()
	logger := m.protoLogger
	m.mu.Unlock()
	if logger != nil {
		logger.Log(*ev)
	}
}
