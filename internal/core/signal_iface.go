package core

// Frame is an encoded envelope ready to be written as one binary message.
type Frame []byte

// Sender is the outbound delivery handle of a client.
// Send must never block.
type Sender interface {
	Send(Frame) error
}
