package core

// Frame is one serialized signaling payload.
type Frame []byte

// SignalConnection abstracts a member's messaging transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
