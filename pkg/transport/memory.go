package transport

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
)

// memoryInboxSize bounds queued deliveries per connector. Further messages
// are dropped, as a full socket buffer would.
const memoryInboxSize = 256

var errAddrInUse = errors.New("address already in use")

// DropFunc decides whether a message in flight is lost.
type DropFunc func(from, to netip.AddrPort, data []byte) bool

// MemoryNetwork delivers messages between MemoryConnectors in process.
// Delivery is asynchronous and unreliable in the same way as UDP: messages
// to unknown addresses vanish and a DropFunc can discard any message.
type MemoryNetwork struct {
	mu        sync.RWMutex
	endpoints map[netip.AddrPort]*MemoryConnector
	drop      DropFunc
}

// NewMemoryNetwork creates an empty network.
func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{endpoints: make(map[netip.AddrPort]*MemoryConnector)}
}

// SetDropFunc installs f to filter deliveries. Nil delivers everything.
func (n *MemoryNetwork) SetDropFunc(f DropFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drop = f
}

// NewConnector creates a connector bound to addr once started.
func (n *MemoryNetwork) NewConnector(addr netip.AddrPort) *MemoryConnector {
	return &MemoryConnector{network: n, addr: addr}
}

func (n *MemoryNetwork) deliver(from, to netip.AddrPort, data []byte) {
	n.mu.RLock()
	dst := n.endpoints[to]
	drop := n.drop
	n.mu.RUnlock()

	if dst == nil || (drop != nil && drop(from, to, data)) {
		return
	}
	dst.enqueue(memoryDelivery{from: from, data: append([]byte(nil), data...)})
}

type memoryDelivery struct {
	from netip.AddrPort
	data []byte
}

// MemoryConnector is a Connector attached to a MemoryNetwork.
type MemoryConnector struct {
	network *MemoryNetwork
	addr    netip.AddrPort

	mu      sync.Mutex
	inbox   chan memoryDelivery
	done    chan struct{}
	stop    func() bool
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// Start registers the connector's address on the network.
func (c *MemoryConnector) Start(ctx context.Context, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}

	c.inbox = make(chan memoryDelivery, memoryInboxSize)
	c.done = make(chan struct{})

	c.network.mu.Lock()
	if _, taken := c.network.endpoints[c.addr]; taken {
		c.network.mu.Unlock()
		return &net.OpError{Op: "listen", Net: "memory", Addr: c.LocalAddr(), Err: errAddrInUse}
	}
	c.network.endpoints[c.addr] = c
	c.network.mu.Unlock()

	c.started = true
	c.stop = context.AfterFunc(ctx, func() { c.Close() })

	c.wg.Add(1)
	go c.deliverLoop(h)
	return nil
}

// Send queues data for the connector bound to remote.
func (c *MemoryConnector) Send(remote netip.AddrPort, data []byte) error {
	c.mu.Lock()
	started, closed := c.started, c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if !started {
		return ErrNotStarted
	}
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	c.network.deliver(c.addr, remote, data)
	return nil
}

// LocalAddr returns the connector's address.
func (c *MemoryConnector) LocalAddr() net.Addr {
	return net.UDPAddrFromAddrPort(c.addr)
}

// AddrPort returns the connector's address.
func (c *MemoryConnector) AddrPort() netip.AddrPort {
	return c.addr
}

// Close detaches the connector from the network.
func (c *MemoryConnector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started, stop := c.started, c.stop
	c.mu.Unlock()

	if !started {
		return nil
	}
	stop()

	c.network.mu.Lock()
	if c.network.endpoints[c.addr] == c {
		delete(c.network.endpoints, c.addr)
	}
	c.network.mu.Unlock()

	close(c.done)
	c.wg.Wait()
	return nil
}

func (c *MemoryConnector) enqueue(d memoryDelivery) {
	select {
	case c.inbox <- d:
	default:
	}
}

func (c *MemoryConnector) deliverLoop(h Handler) {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case d := <-c.inbox:
			h(d.from, d.data)
		}
	}
}
