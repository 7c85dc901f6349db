package transport

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryNetworkDelivery(t *testing.T) {
	network := NewMemoryNetwork()
	addrA := netip.MustParseAddrPort("10.0.0.1:5683")
	addrB := netip.MustParseAddrPort("10.0.0.2:5683")

	inA := make(chan inbound, 1)
	inB := make(chan inbound, 1)
	a := network.NewConnector(addrA)
	b := network.NewConnector(addrB)
	require.NoError(t, a.Start(context.Background(), collect(inA)))
	require.NoError(t, b.Start(context.Background(), collect(inB)))
	defer a.Close()
	defer b.Close()

	msg := []byte("hello")
	require.NoError(t, a.Send(addrB, msg))
	msg[0] = 'j' // sender's buffer is not shared

	got := receive(t, inB)
	assert.Equal(t, addrA, got.remote)
	assert.Equal(t, []byte("hello"), got.data)

	require.NoError(t, b.Send(addrA, []byte("back")))
	assert.Equal(t, addrB, receive(t, inA).remote)

	assert.Equal(t, addrA.String(), a.LocalAddr().String())
	assert.Equal(t, addrA, a.AddrPort())
}

func TestMemoryNetworkDrop(t *testing.T) {
	network := NewMemoryNetwork()
	addrA := netip.MustParseAddrPort("10.0.0.1:5683")
	addrB := netip.MustParseAddrPort("10.0.0.2:5683")

	in := make(chan inbound, 4)
	a := network.NewConnector(addrA)
	b := network.NewConnector(addrB)
	require.NoError(t, a.Start(context.Background(), func(netip.AddrPort, []byte) {}))
	require.NoError(t, b.Start(context.Background(), collect(in)))
	defer a.Close()
	defer b.Close()

	network.SetDropFunc(func(_, _ netip.AddrPort, data []byte) bool {
		return string(data) == "lost"
	})

	require.NoError(t, a.Send(addrB, []byte("lost")))
	require.NoError(t, a.Send(addrB, []byte("kept")))
	assert.Equal(t, []byte("kept"), receive(t, in).data)

	// unknown destination vanishes silently
	require.NoError(t, a.Send(netip.MustParseAddrPort("10.0.0.9:5683"), []byte("x")))

	select {
	case extra := <-in:
		t.Fatalf("unexpected delivery %q", extra.data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryConnectorLifecycle(t *testing.T) {
	network := NewMemoryNetwork()
	addr := netip.MustParseAddrPort("10.0.0.1:5683")
	c := network.NewConnector(addr)

	assert.ErrorIs(t, c.Send(addr, []byte{1}), ErrNotStarted)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx, func(netip.AddrPort, []byte) {}))
	assert.ErrorIs(t, c.Start(ctx, nil), ErrAlreadyStarted)
	assert.ErrorIs(t, c.Send(addr, nil), ErrMessageEmpty)

	dup := network.NewConnector(addr)
	assert.Error(t, dup.Start(context.Background(), func(netip.AddrPort, []byte) {}))

	cancel()
	require.Eventually(t, func() bool { return c.Send(addr, []byte{1}) == ErrClosed }, time.Second, 5*time.Millisecond)

	// address is free again once the cancelled connector has detached
	again := network.NewConnector(addr)
	require.Eventually(t, func() bool {
		return again.Start(context.Background(), func(netip.AddrPort, []byte) {}) == nil
	}, time.Second, 5*time.Millisecond)
	assert.NoError(t, again.Close())
}
