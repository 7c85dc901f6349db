package transport

import (
	"context"
	"errors"
	"net"
	"net/netip"
)

// Connector errors.
var (
	ErrNotStarted     = errors.New("connector not started")
	ErrAlreadyStarted = errors.New("connector already started")
	ErrClosed         = errors.New("connector closed")
	ErrUnreachable    = errors.New("remote unreachable")
)

// Handler receives one inbound message. The data slice is owned by the
// handler. Handlers run on the connector's read goroutines and must not
// block for long.
type Handler func(remote netip.AddrPort, data []byte)

// Connector sends and receives encoded messages for one local endpoint.
type Connector interface {
	// Start binds the connector and begins delivering inbound messages to h.
	// Delivery stops when ctx is cancelled or Close is called.
	Start(ctx context.Context, h Handler) error

	// Send transmits one encoded message to remote.
	Send(remote netip.AddrPort, data []byte) error

	// LocalAddr returns the bound local address, or nil before Start.
	LocalAddr() net.Addr

	// Close releases all sockets. It is safe to call more than once.
	Close() error
}

// addrPortOf converts a net.Addr from the socket layer. IPv4-mapped IPv6
// addresses are unmapped so that the same peer always yields the same key.
func addrPortOf(addr net.Addr) netip.AddrPort {
	var ap netip.AddrPort
	switch a := addr.(type) {
	case *net.UDPAddr:
		ap = a.AddrPort()
	case *net.TCPAddr:
		ap = a.AddrPort()
	default:
		if addr != nil {
			ap, _ = netip.ParseAddrPort(addr.String())
		}
	}
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}
