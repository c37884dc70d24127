package protocol

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// Client command tags.
const (
	TagListServers  = "ListServers"
	TagCommand      = "Command"
	TagSetServer    = "SetServer"
	TagServerLog    = "ServerLog"
	TagStatus       = "Status"
	TagCreateServer = "CreateServer"
	TagConnect      = "Connect"
)

// ClientCommand is a command sent by a client.
type ClientCommand interface {
	clientTag() string
}

type ListServers struct{}

// SendCommand forwards Cmd to a backend server.
type SendCommand struct {
	ServerID uuid.UUID `json:"id"`
	Cmd      string    `json:"cmd"`
}

// SetServer selects the client's current server.
type SetServer struct {
	ServerID uuid.UUID
}

// RequestLog asks for one page of a server log. A nil ServerID means the
// attached server, a nil Page the newest page.
type RequestLog struct {
	ServerID *uuid.UUID `json:"id,omitempty"`
	Page     *int       `json:"page,omitempty"`
}

type RequestStatus struct {
	ServerID uuid.UUID
}

// CreateServer registers a new backend server. The zero value, sent
// without a body, asks for a default named server without a communicator.
type CreateServer struct {
	Name string                  `json:"name"`
	Kind domain.CommunicatorKind `json:"kind,omitempty"`
}

type ConnectServer struct {
	ServerID uuid.UUID `json:"id"`
	Address  string    `json:"address"`
	Password string    `json:"password"`
}

func (ListServers) clientTag() string   { return TagListServers }
func (SendCommand) clientTag() string   { return TagCommand }
func (SetServer) clientTag() string     { return TagSetServer }
func (RequestLog) clientTag() string    { return TagServerLog }
func (RequestStatus) clientTag() string { return TagStatus }
func (CreateServer) clientTag() string  { return TagCreateServer }
func (ConnectServer) clientTag() string { return TagConnect }

func EncodeClientCommand(cmd ClientCommand) (core.Frame, error) {
	switch c := cmd.(type) {
	case ListServers:
		return encode(TagListServers, nil)
	case SetServer:
		return encode(TagSetServer, c.ServerID)
	case RequestStatus:
		return encode(TagStatus, c.ServerID)
	case RequestLog:
		if c.ServerID == nil && c.Page == nil {
			return encode(TagServerLog, nil)
		}
		return encode(TagServerLog, c)
	case CreateServer:
		if c == (CreateServer{}) {
			return encode(TagCreateServer, nil)
		}
		return encode(TagCreateServer, c)
	case nil:
		return nil, fmt.Errorf("encode: nil client command")
	default:
		return encode(cmd.clientTag(), c)
	}
}

// DecodeClientCommand parses a frame. Unknown tags and malformed
// payloads return an error wrapping ErrDecode.
func DecodeClientCommand(frame []byte) (ClientCommand, error) {
	env, err := decode(frame)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TagListServers:
		return ListServers{}, nil
	case TagCommand:
		var c SendCommand
		if err := decodeBody(env, &c); err != nil {
			return nil, err
		}
		return c, nil
	case TagSetServer:
		var c SetServer
		if err := decodeBody(env, &c.ServerID); err != nil {
			return nil, err
		}
		return c, nil
	case TagServerLog:
		var c RequestLog
		if len(env.Body) == 0 {
			return c, nil
		}
		if err := decodeBody(env, &c); err != nil {
			return nil, err
		}
		return c, nil
	case TagStatus:
		var c RequestStatus
		if err := decodeBody(env, &c.ServerID); err != nil {
			return nil, err
		}
		return c, nil
	case TagCreateServer:
		var c CreateServer
		if len(env.Body) == 0 {
			return c, nil
		}
		if err := decodeBody(env, &c); err != nil {
			return nil, err
		}
		return c, nil
	case TagConnect:
		var c ConnectServer
		if err := decodeBody(env, &c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unknown client command %q", ErrDecode, env.Type)
	}
}
