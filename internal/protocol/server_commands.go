package protocol

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// Server command tags. Status and ServerLog share their tag with the
// client requests that produce them.
const (
	TagIdentity   = "Identity"
	TagServerList = "ServerList"
	TagPrint      = "Print"
	TagOutput     = "Output"
)

// ServerCommand is a command sent to a client.
type ServerCommand interface {
	serverTag() string
}

// Identity tells a client who it is; it is the first command on every connection.
type Identity struct {
	Client domain.Client
}

type ServerList struct {
	Servers []domain.ServerInfo
}

// Print carries a human readable notice.
type Print struct {
	Text string
}

// ServerStatus reports one server's info. It is also the payload reserved
// for join/leave notifications.
type ServerStatus struct {
	Info domain.ServerInfo
}

type ServerLogPage struct {
	ServerID uuid.UUID        `json:"server_id"`
	PageNo   int              `json:"page_no"`
	Messages []domain.Message `json:"messages"`
}

// Output is the response of a backend server to a forwarded command.
type Output struct {
	ServerID uuid.UUID `json:"server_id"`
	Cmd      string    `json:"cmd"`
	Out      string    `json:"out"`
}

func (Identity) serverTag() string      { return TagIdentity }
func (ServerList) serverTag() string    { return TagServerList }
func (Print) serverTag() string         { return TagPrint }
func (ServerStatus) serverTag() string  { return TagStatus }
func (ServerLogPage) serverTag() string { return TagServerLog }
func (Output) serverTag() string        { return TagOutput }

func EncodeServerCommand(cmd ServerCommand) (core.Frame, error) {
	switch c := cmd.(type) {
	case Identity:
		return encode(TagIdentity, c.Client)
	case ServerList:
		servers := c.Servers
		if servers == nil {
			servers = []domain.ServerInfo{}
		}
		return encode(TagServerList, servers)
	case Print:
		return encode(TagPrint, c.Text)
	case ServerStatus:
		return encode(TagStatus, c.Info)
	case ServerLogPage:
		if c.Messages == nil {
			c.Messages = []domain.Message{}
		}
		return encode(TagServerLog, c)
	case Output:
		return encode(TagOutput, c)
	default:
		return nil, fmt.Errorf("encode: unsupported server command %T", cmd)
	}
}

func DecodeServerCommand(frame []byte) (ServerCommand, error) {
	env, err := decode(frame)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TagIdentity:
		var c Identity
		if err := decodeBody(env, &c.Client); err != nil {
			return nil, err
		}
		return c, nil
	case TagServerList:
		var c ServerList
		if err := decodeBody(env, &c.Servers); err != nil {
			return nil, err
		}
		return c, nil
	case TagPrint:
		var c Print
		if err := decodeBody(env, &c.Text); err != nil {
			return nil, err
		}
		return c, nil
	case TagStatus:
		var c ServerStatus
		if err := decodeBody(env, &c.Info); err != nil {
			return nil, err
		}
		return c, nil
	case TagServerLog:
		var c ServerLogPage
		if err := decodeBody(env, &c); err != nil {
			return nil, err
		}
		return c, nil
	case TagOutput:
		var c Output
		if err := decodeBody(env, &c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unknown server command %q", ErrDecode, env.Type)
	}
}
