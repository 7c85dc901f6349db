// Package transport moves encoded CoAP messages between endpoints.
//
// A Connector owns the sockets for one local endpoint. Inbound datagrams or
// frames are delivered to a Handler together with the remote address; the
// layer above decodes them and correlates responses with transactions.
//
// # Connectors
//
//   - UDPConnector: one socket, one read loop, one datagram per message.
//   - TCPClientConnector: one connection per remote, dialed on first send,
//     with 4-byte big-endian length-prefix framing and an idle timeout.
//   - MemoryConnector: in-process delivery over a MemoryNetwork, for tests.
//
// # Framing (TCP)
//
//	┌────────────────────────────────┐
//	│      CoAP message              │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
package transport
