package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func queueOf(txs ...*Transaction) *endpointQueue {
	q := newEndpointQueue(remoteAddr)
	for i, tx := range txs {
		tx.seq = uint64(i + 1)
		q.insert(tx)
	}
	return q
}

func mids(q *endpointQueue) []uint16 {
	out := make([]uint16, 0, q.len())
	for _, tx := range q.items {
		out = append(out, tx.id.MessageID)
	}
	return out
}

func TestEndpointQueueInsert(t *testing.T) {
	tests := []struct {
		name       string
		priorities []Priority
		want       []uint16
	}{
		{
			name:       "single",
			priorities: []Priority{PriorityNormal},
			want:       []uint16{1},
		},
		{
			name:       "fifo within tier",
			priorities: []Priority{PriorityNormal, PriorityNormal, PriorityNormal},
			want:       []uint16{1, 2, 3},
		},
		{
			name:       "head not displaced",
			priorities: []Priority{PriorityLow, PriorityHigh},
			want:       []uint16{1, 2},
		},
		{
			name:       "mixed",
			priorities: []Priority{PriorityLow, PriorityLow, PriorityNormal, PriorityNormal, PriorityHigh, PriorityHigh},
			want:       []uint16{1, 5, 6, 3, 4, 2},
		},
		{
			name:       "high after lower waiting",
			priorities: []Priority{PriorityHigh, PriorityLow, PriorityNormal, PriorityHigh},
			want:       []uint16{1, 4, 3, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := make([]*Transaction, len(tt.priorities))
			for i, p := range tt.priorities {
				txs[i] = newTx(remoteAddr, uint16(i+1), p)
			}
			q := queueOf(txs...)
			assert.Equal(t, tt.want, mids(q))
		})
	}
}

func TestEndpointQueueRemove(t *testing.T) {
	q := queueOf(
		newTx(remoteAddr, 1, PriorityNormal),
		newTx(remoteAddr, 2, PriorityNormal),
		newTx(remoteAddr, 3, PriorityHigh),
	)

	assert.Equal(t, 2, q.index(ID{Remote: remoteAddr, MessageID: 2}))
	assert.Equal(t, -1, q.index(ID{Remote: remoteAddr, MessageID: 9}))
	assert.Equal(t, -1, q.index(ID{Remote: remoteAddr2, MessageID: 1}))

	removed := q.removeAt(0)
	assert.Equal(t, uint16(1), removed.id.MessageID)
	assert.Equal(t, uint16(3), q.head().id.MessageID)
	assert.Equal(t, []uint16{3, 2}, mids(q))

	q.removeAt(1)
	q.removeAt(0)
	assert.Nil(t, q.head())
	assert.Zero(t, q.len())
}
