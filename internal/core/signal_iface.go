package core

// Frame is one encoded outbound message.
type Frame []byte

// ConnID identifies a single live connection; it is ephemeral.
type ConnID string

// SignalConnection abstracts the messaging transport of one connection.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues without blocking. Frames are written in enqueue order.
	TrySend(Frame) error
	Close()
}
