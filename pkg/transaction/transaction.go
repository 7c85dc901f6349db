package transaction

import (
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/coapstack/coap-go/pkg/coap"
)

// Priority orders transactions queued for the same endpoint.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityNormal:
		return "NORMAL"
	case PriorityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// State is the lifecycle state of a transaction.
type State uint8

const (
	// StatePending: admitted, not yet sent.
	StatePending State = iota

	// StateActive: sent and awaiting an ACK or response.
	StateActive

	// StateLocked: completion in progress; retransmission must be suppressed.
	StateLocked

	// StateRemoved: no longer tracked.
	StateRemoved
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateActive:
		return "ACTIVE"
	case StateLocked:
		return "LOCKED"
	case StateRemoved:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// ID identifies a transaction: the remote endpoint and the message ID of
// the outgoing request. IDs are comparable and usable as map keys.
type ID struct {
	Remote    netip.AddrPort
	MessageID uint16
}

func (id ID) String() string {
	return fmt.Sprintf("%s#%d", id.Remote, id.MessageID)
}

// Callback receives the outcome of a transaction: the response packet, or
// an error such as a reset, an I/O failure, or cancellation.
type Callback func(resp *coap.Packet, err error)

// Transaction is one tracked request awaiting its response.
//
// The identity, request, priority and callback are fixed at creation.
// Sequence and state belong to the Manager and change only under its lock.
type Transaction struct {
	id       ID
	request  *coap.Packet
	priority Priority
	callback Callback
	created  time.Time

	seq   uint64
	state State

	completeOnce sync.Once
}

// New creates a pending transaction for req. The message ID and remote
// address of req form the transaction ID, so req must not be modified
// afterwards.
func New(req *coap.Packet, priority Priority, cb Callback) *Transaction {
	return &Transaction{
		id:       ID{Remote: req.Remote, MessageID: req.MessageID},
		request:  req,
		priority: priority,
		callback: cb,
		created:  time.Now(),
		state:    StatePending,
	}
}

// ID returns the transaction identity.
func (t *Transaction) ID() ID {
	return t.id
}

// Request returns the outgoing request packet.
func (t *Transaction) Request() *coap.Packet {
	return t.request
}

// Priority returns the queueing priority.
func (t *Transaction) Priority() Priority {
	return t.priority
}

// Created returns when the transaction was created.
func (t *Transaction) Created() time.Time {
	return t.created
}

// Complete invokes the callback with the outcome. Only the first call has
// any effect; it reports whether this call delivered the outcome.
func (t *Transaction) Complete(resp *coap.Packet, err error) bool {
	delivered := false
	t.completeOnce.Do(func() {
		delivered = true
		if t.callback != nil {
			t.callback(resp, err)
		}
	})
	return delivered
}

// before reports whether t sorts ahead of other: higher priority first,
// then earlier admission.
func (t *Transaction) before(other *Transaction) bool {
	if t.priority != other.priority {
		return t.priority > other.priority
	}
	return t.seq < other.seq
}

func (t *Transaction) inFlight() bool {
	return t.state == StateActive || t.state == StateLocked
}
