// Package coap defines the CoAP message model shared by the transaction
// core, the exchange engine, and the transports.
//
// The package deliberately stops at the decoded message: byte-level
// encoding is owned by a Codec supplied by the caller. Only the header
// fields the transaction core needs are modelled:
//
//   - Remote address (the endpoint identity)
//   - Message type (CON, NON, ACK, RST)
//   - Code (request method, response code, or empty)
//   - Message ID
//   - Token
//
// Options and payload are carried opaquely for the codec.
package coap
