package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

var errNoIdentity = errors.New("relay did not identify the client")

// conn is a one-shot relay connection: it knows who it is after dial and
// exchanges commands one at a time.
type conn struct {
	ws      *websocket.Conn
	self    domain.Client
	timeout time.Duration
}

func dial(ctx context.Context, url string, timeout time.Duration) (*conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &conn{ws: ws, timeout: timeout}

	first, _, err := c.read()
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	id, ok := first.(protocol.Identity)
	if !ok {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: got %T", errNoIdentity, first)
	}
	c.self = id.Client
	return c, nil
}

// read returns the next server command and its raw frame. Non-binary
// frames are skipped.
func (c *conn) read() (protocol.ServerCommand, []byte, error) {
	for {
		if err := c.ws.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, nil, err
		}
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, nil, fmt.Errorf("read: %w", err)
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		cmd, err := protocol.DecodeServerCommand(data)
		if err != nil {
			return nil, nil, err
		}
		return cmd, data, nil
	}
}

// request sends cmd and returns the first reply.
func (c *conn) request(cmd protocol.ClientCommand) (protocol.ServerCommand, []byte, error) {
	frame, err := protocol.EncodeClientCommand(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, nil, err
	}
	if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, nil, fmt.Errorf("write: %w", err)
	}
	return c.read()
}

func (c *conn) close() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = c.ws.Close()
}
