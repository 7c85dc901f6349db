package transaction

import (
	"net/netip"
	"slices"
	"sort"
)

// endpointQueue holds the transactions for one remote endpoint.
//
// items[0] is the head: the transaction in flight or about to be sent.
// items[1:] are sorted by priority then sequence. Insertions never go to
// index 0 of a non-empty queue, so the head is never displaced.
type endpointQueue struct {
	remote netip.AddrPort
	items  []*Transaction
}

func newEndpointQueue(remote netip.AddrPort) *endpointQueue {
	return &endpointQueue{remote: remote}
}

func (q *endpointQueue) len() int {
	return len(q.items)
}

func (q *endpointQueue) head() *Transaction {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// insert places tx after every waiting member that sorts before it.
func (q *endpointQueue) insert(tx *Transaction) {
	if len(q.items) == 0 {
		q.items = append(q.items, tx)
		return
	}
	waiting := q.items[1:]
	pos := sort.Search(len(waiting), func(i int) bool {
		return tx.before(waiting[i])
	})
	q.items = slices.Insert(q.items, 1+pos, tx)
}

// index returns the position of the transaction with the given ID, or -1.
func (q *endpointQueue) index(id ID) int {
	for i, tx := range q.items {
		if tx.id == id {
			return i
		}
	}
	return -1
}

func (q *endpointQueue) removeAt(i int) *Transaction {
	tx := q.items[i]
	q.items = slices.Delete(q.items, i, i+1)
	return tx
}
