package transaction

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coapstack/coap-go/pkg/coap"
)

func TestNewTransaction(t *testing.T) {
	req := newRequest(remoteAddr, 42, coap.Token{0xca, 0xfe})
	tx := New(req, PriorityHigh, nil)

	assert.Equal(t, ID{Remote: remoteAddr, MessageID: 42}, tx.ID())
	assert.Same(t, req, tx.Request())
	assert.Equal(t, PriorityHigh, tx.Priority())
	assert.False(t, tx.Created().IsZero())
	assert.Equal(t, "127.0.0.1:5683#42", tx.ID().String())
}

func TestCompleteOnce(t *testing.T) {
	var calls atomic.Int32
	var got error
	tx := New(newRequest(remoteAddr, 1, nil), PriorityNormal, func(_ *coap.Packet, err error) {
		calls.Add(1)
		got = err
	})

	errFirst := errors.New("first")

	var wg sync.WaitGroup
	var delivered atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tx.Complete(nil, errFirst) {
				delivered.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), delivered.Load())
	assert.ErrorIs(t, got, errFirst)
	assert.False(t, tx.Complete(&coap.Packet{}, nil))
}

func TestCompleteWithoutCallback(t *testing.T) {
	tx := New(newRequest(remoteAddr, 1, nil), PriorityNormal, nil)
	assert.True(t, tx.Complete(nil, nil))
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "LOW", PriorityLow.String())
	assert.Equal(t, "NORMAL", PriorityNormal.String())
	assert.Equal(t, "HIGH", PriorityHigh.String())
	assert.Equal(t, "UNKNOWN", Priority(9).String())

	assert.Equal(t, "PENDING", StatePending.String())
	assert.Equal(t, "ACTIVE", StateActive.String())
	assert.Equal(t, "LOCKED", StateLocked.String())
	assert.Equal(t, "REMOVED", StateRemoved.String())
	assert.Equal(t, "UNKNOWN", State(9).String())
}

func TestEndpointQueueFullError(t *testing.T) {
	err := error(&EndpointQueueFullError{Remote: remoteAddr, Limit: 3})
	assert.ErrorIs(t, err, ErrTooManyRequestsForEndpoint)
	assert.NotErrorIs(t, err, ErrInvalidQueueSize)
	assert.Contains(t, err.Error(), "127.0.0.1:5683")
}
