// Package exchange drives CoAP request/response exchanges over a
// transport.Connector, using a transaction.Manager for ordering and
// correlation.
//
// Outgoing confirmable requests are admitted per remote endpoint; only the
// head of each endpoint queue is on the wire. Completion follows the
// manager's handshake:
//
//	piggybacked ACK / RST      RemoveAndLock -> callback -> UnlockOrRemoveAndGetNext
//	separate CON response      FindMatchAndRemoveForSeparateResponse -> ACK -> callback
//	                           -> UnlockOrRemoveAndGetNext
//
// after which the next queued request for the endpoint, if any, is sent.
//
// Serialization is delegated to a coap.Codec. Retransmission is not part
// of this package; callers bound each exchange with a context or Cancel.
package exchange
