package transport

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads a length-prefixed frame.
	ReadFrame() ([]byte, error)

	// WriteFrame writes a length-prefixed frame.
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ Connector       = (*UDPConnector)(nil)
	_ Connector       = (*TCPClientConnector)(nil)
	_ Connector       = (*MemoryConnector)(nil)
	_ FrameReadWriter = (*Framer)(nil)
)
