package orch

import (
	"context"
	"testing"
	"time"

	"github.com/gorcon/rcon"
	"github.com/gorcon/rcon/rcontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/communicator/csgo"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

func TestClientLeavingDoesNotBreakSharedServer(t *testing.T) {
	rs := rcontest.NewServer(
		rcontest.SetSettings(rcontest.Settings{Password: "bruh"}),
		rcontest.SetCommandHandler(func(c *rcontest.Context) {
			body := "hostname: ein"
			if c.Request().Body() == "slow" {
				time.Sleep(150 * time.Millisecond)
				body = "done"
			}
			_, _ = rcon.NewPacket(rcon.SERVERDATA_RESPONSE_VALUE, c.Request().ID, body).WriteTo(c.Conn())
		}),
	)
	t.Cleanup(rs.Close)

	reg := app.NewRegistry()
	srv := app.NewBackendServer("ein csgo server", csgo.New())
	t.Cleanup(func() { _ = srv.Close() })
	reg.InsertServer(srv)
	require.NoError(t, srv.Connect(context.Background(), rs.Addr(), "bruh"))

	o := &Orchestrator{Registry: reg}
	a, _ := accept(t, o)
	b, _ := accept(t, o)

	// a's connection ends while its command is still with the backend
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	reply := o.Handle(ctx, a.ID(), protocol.SendCommand{ServerID: srv.ID(), Cmd: "slow"})
	assert.Equal(t, protocol.Output{ServerID: srv.ID(), Cmd: "slow", Out: "done"}, reply)
	o.Disconnect(a.ID())

	assert.Equal(t, domain.StatusConnected, srv.Status())
	reply = o.Handle(context.Background(), b.ID(), protocol.SendCommand{ServerID: srv.ID(), Cmd: "status"})
	assert.Equal(t, protocol.Output{ServerID: srv.ID(), Cmd: "status", Out: "hostname: ein"}, reply)
}

func TestCommandTimeoutReportsDisconnected(t *testing.T) {
	release := make(chan struct{})
	rs := rcontest.NewServer(
		rcontest.SetSettings(rcontest.Settings{Password: "bruh"}),
		rcontest.SetCommandHandler(func(c *rcontest.Context) {
			<-release
		}),
	)
	t.Cleanup(rs.Close)
	t.Cleanup(func() { close(release) })

	reg := app.NewRegistry()
	srv := app.NewBackendServer("ein csgo server", csgo.New())
	t.Cleanup(func() { _ = srv.Close() })
	reg.InsertServer(srv)
	require.NoError(t, srv.Connect(context.Background(), rs.Addr(), "bruh"))

	o := &Orchestrator{Registry: reg, CommandTimeout: 50 * time.Millisecond}
	a, _ := accept(t, o)

	reply := o.Handle(context.Background(), a.ID(), protocol.SendCommand{ServerID: srv.ID(), Cmd: "status"})
	out, ok := reply.(protocol.Output)
	require.True(t, ok)
	assert.Contains(t, out.Out, context.DeadlineExceeded.Error())

	status := o.Handle(context.Background(), a.ID(), protocol.RequestStatus{ServerID: srv.ID()})
	assert.Equal(t, domain.StatusDisconnected, status.(protocol.ServerStatus).Info.Status)
}
