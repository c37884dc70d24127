// Package ws runs the per-connection websocket pump: inbound frames are
// decoded and routed, replies and other outbound commands are written back
// in the order they were queued.
package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/core"
)

const (
	defaultPingPeriod   = 54 * time.Second
	defaultWriteTimeout = 5 * time.Second
	closeGrace          = time.Second
)

var errConnClosed = errors.New("connection closed")

type Controller struct {
	Orch         *orch.Orchestrator
	ReadLimit    int64
	PingPeriod   time.Duration
	WriteTimeout time.Duration
}

func NewController(o *orch.Orchestrator, readLimit int64, pingPeriod, writeTimeout time.Duration) *Controller {
	if pingPeriod <= 0 {
		pingPeriod = defaultPingPeriod
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Controller{
		Orch:         o,
		ReadLimit:    readLimit,
		PingPeriod:   pingPeriod,
		WriteTimeout: writeTimeout,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and serves the connection until it ends.
// header carries extra response headers for the upgrade, such as cookies.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context, name string, header http.Header) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	ctl.Serve(ctx, conn, name)
}

// Serve registers a client for conn and pumps it until either direction
// stops, the peer closes or ctx ends. The client is removed on return;
// frames still queued at that point are dropped.
func (ctl *Controller) Serve(ctx context.Context, conn *websocket.Conn, name string) {
	peer := conn.RemoteAddr().String()
	out := core.NewOutbox()

	sess, err := ctl.Orch.Accept(name, out)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Str("peer", peer).Msg("accept client")
		_ = conn.Close()
		return
	}
	sid := sess.ID()
	log.Info().Str("module", "ws").Str("peer", peer).Str("client", sid.String()).Msg("new WS connection")

	defer func() {
		ctl.Orch.Disconnect(sid)
		out.Close()
		_ = conn.Close()
		log.Info().Str("module", "ws").Str("peer", peer).Str("client", sid.String()).Msg("disconnected")
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctl.readPump(gctx, sid, conn, out) })
	g.Go(func() error { return ctl.writePump(gctx, conn, out) })
	g.Go(func() error {
		<-gctx.Done()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		_ = conn.Close()
		return errConnClosed
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errConnClosed) && !errors.Is(err, context.Canceled) {
		log.Debug().Err(err).Str("module", "ws").Str("client", sid.String()).Msg("pump stopped")
	}
}
