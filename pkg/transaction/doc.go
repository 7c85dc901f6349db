// Package transaction tracks outstanding CoAP request/response exchanges.
//
// A Manager keeps one queue per remote endpoint. Only the head of a queue
// is ever in flight; the rest wait, ordered by priority (HIGH, NORMAL,
// LOW) and then by admission order. Once admitted, a head is never
// displaced by a later insertion, whatever its priority.
//
// # Lifecycle
//
//	Add ──► PENDING ──Activate──► ACTIVE ──RemoveAndLock──► LOCKED
//	           │                    │                          │
//	           │                    └─FindMatchAndRemove...─┐  │
//	           └────────UnlockOrRemoveAndGetNext────────────┴──┴──► REMOVED
//
// Add reports whether the transaction became the head of an empty queue;
// the caller then sends the request and calls Activate. When an ACK or
// response arrives, the caller locks the transaction with RemoveAndLock,
// completes it, and calls UnlockOrRemoveAndGetNext to learn what to send
// next. A retransmission timer that observes StateLocked through State must
// not resend.
//
// Separate responses (a CON response following an empty ACK) are matched
// by token with FindMatchAndRemoveForSeparateResponse.
//
// Missing or inactive transactions are reported as (nil, false), never as
// errors: duplicate packets and timer/IO races are routine.
package transaction
