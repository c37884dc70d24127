package core

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrConnection is returned when a communicator fails to reach its backend.
var ErrConnection = errors.New("connection error")

// Communicator talks one backend's remote-control protocol.
// Implementations need not be safe for concurrent use; the owning
// server serialises calls.
type Communicator interface {
	// Connect establishes a session. On error the communicator must be
	// left as if Connect had never been called.
	Connect(ctx context.Context, address, password string) error
	// SendCmd sends one command and returns the backend's response.
	// Transport faults are reported inside the returned text.
	SendCmd(ctx context.Context, cmd string) string
	// Settings describes backend specific configuration.
	Settings() json.RawMessage
}

// LinkReporter is implemented by communicators that can lose an
// established session on their own, for example after a timed out
// command. The owning server checks it after every dispatch.
type LinkReporter interface {
	Connected() bool
}
