package ws

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/protocol"
)

func (ctl *Controller) pongWait() time.Duration {
	return ctl.PingPeriod * 10 / 9
}

func (ctl *Controller) writePump(ctx context.Context, conn *websocket.Conn, out *core.Outbox) error {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.WriteTimeout)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		case <-out.Ready():
			for _, frame := range out.Drain() {
				if err := conn.SetWriteDeadline(time.Now().Add(ctl.WriteTimeout)); err != nil {
					return fmt.Errorf("set write deadline: %w", err)
				}
				if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
					log.Warn().Err(err).Str("module", "ws").Msg("writePump write error")
					return fmt.Errorf("write: %w", err)
				}
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid uuid.UUID, conn *websocket.Conn, out *core.Outbox) error {
	if ctl.ReadLimit > 0 {
		conn.SetReadLimit(ctl.ReadLimit)
	}
	extend := func() error { return conn.SetReadDeadline(time.Now().Add(ctl.pongWait())) }
	_ = extend()
	conn.SetPongHandler(func(string) error { return extend() })

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			logReadError(sid, err)
			return fmt.Errorf("read: %w", err)
		}
		if mt != websocket.BinaryMessage {
			log.Debug().Str("module", "ws").Str("client", sid.String()).Int("type", mt).Msg("non-binary frame ignored")
			continue
		}
		ctl.handleFrame(ctx, sid, out, data)
		_ = extend()
	}
}

func logReadError(sid uuid.UUID, err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		log.Warn().Err(err).Str("module", "ws").Str("client", sid.String()).Msg("readPump read error")
		return
	}
	log.Debug().Err(err).Str("module", "ws").Str("client", sid.String()).Msg("readPump closed")
}

func (ctl *Controller) handleFrame(ctx context.Context, sid uuid.UUID, out core.Sender, data []byte) {
	cmd, err := protocol.DecodeClientCommand(data)
	if err != nil {
		ev := log.Warn().Err(err).Str("module", "ws").Str("client", sid.String())
		if raw := protocol.Payload(data); raw != nil {
			ev = ev.Bytes("payload", raw)
		} else {
			ev = ev.Bytes("frame", data)
		}
		ev.Msg("could not resolve client command")
		send(out, protocol.Print{Text: orch.UnknownCommand})
		return
	}

	if reply := ctl.Orch.Handle(ctx, sid, cmd); reply != nil {
		send(out, reply)
	}
}

func send(out core.Sender, cmd protocol.ServerCommand) {
	frame, err := protocol.EncodeServerCommand(cmd)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("encode reply")
		return
	}
	if err := out.Send(frame); err != nil {
		log.Debug().Err(err).Str("module", "ws").Msg("reply dropped")
	}
}
