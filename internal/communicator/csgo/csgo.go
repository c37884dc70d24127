// Package csgo implements the Source RCON communicator used by CS:GO and
// other Source engine servers.
package csgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorcon/rcon"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/communicator"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

const Kind domain.CommunicatorKind = "csgo"

const (
	DefaultDialTimeout = 5 * time.Second
	DefaultDeadline    = 5 * time.Second
)

// NotConnected is the response to a command issued before a successful Connect.
const NotConnected = "Not connected to server"

func init() {
	communicator.Register(Kind, func() core.Communicator { return New() })
}

type Rcon struct {
	conn     *rcon.Conn
	address  string
	deadline time.Duration
}

func New() *Rcon {
	return &Rcon{deadline: DefaultDeadline}
}

// Connect dials address and authenticates. The dial timeout follows the
// context deadline when one is set.
func (r *Rcon) Connect(ctx context.Context, address, password string) error {
	dialTimeout := DefaultDialTimeout
	if dl, ok := ctx.Deadline(); ok {
		dialTimeout = time.Until(dl)
		if dialTimeout <= 0 {
			return ctx.Err()
		}
	}

	conn, err := rcon.Dial(address, password,
		rcon.SetDialTimeout(dialTimeout),
		rcon.SetDeadline(r.deadline),
	)
	if err != nil {
		return fmt.Errorf("rcon dial %s: %w", address, err)
	}

	if r.conn != nil {
		_ = r.conn.Close()
	}
	r.conn = conn
	r.address = address
	log.Info().Str("module", "communicator.csgo").Str("address", address).Msg("rcon connected")
	return nil
}

// SendCmd executes cmd. Multi-line output is returned exactly as the
// server produced it, newline separated, with surrounding whitespace
// trimmed. If ctx ends first, or the exchange fails on the wire, the
// connection is dropped so a late reply cannot be read as the answer to
// the next command.
func (r *Rcon) SendCmd(ctx context.Context, cmd string) string {
	if r.conn == nil {
		return NotConnected
	}

	type result struct {
		out string
		err error
	}
	conn := r.conn
	done := make(chan result, 1)
	go func() {
		out, err := conn.Execute(cmd)
		done <- result{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			log.Warn().Err(res.err).Str("module", "communicator.csgo").Str("address", r.address).Msg("rcon execute")
			if !rejectedLocally(res.err) {
				r.drop()
			}
			return fmt.Sprintf("Error: %v", res.err)
		}
		return strings.TrimSpace(res.out)
	case <-ctx.Done():
		r.drop()
		log.Warn().Err(ctx.Err()).Str("module", "communicator.csgo").Str("address", r.address).Msg("rcon command abandoned")
		return fmt.Sprintf("Error: %v", ctx.Err())
	}
}

// rejectedLocally reports errors raised before anything reached the wire;
// the session is still usable after them.
func rejectedLocally(err error) bool {
	return errors.Is(err, rcon.ErrCommandEmpty) || errors.Is(err, rcon.ErrCommandTooLong)
}

func (r *Rcon) drop() {
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}

// Close ends the session, if any.
func (r *Rcon) Close() error {
	r.drop()
	return nil
}

// Connected reports whether a session is open. A transport fault or an
// abandoned command closes it.
func (r *Rcon) Connected() bool {
	return r.conn != nil
}

func (r *Rcon) Settings() json.RawMessage {
	b, _ := json.Marshal(struct {
		Kind    domain.CommunicatorKind `json:"kind"`
		Address string                  `json:"address,omitempty"`
	}{Kind: Kind, Address: r.address})
	return b
}
