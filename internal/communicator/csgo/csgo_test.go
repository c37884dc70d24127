package csgo

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/gorcon/rcon"
	"github.com/gorcon/rcon/rcontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Relay/internal/communicator"
)

const testPassword = "bruh"

func reply(c *rcontest.Context, body string) {
	_, _ = rcon.NewPacket(rcon.SERVERDATA_RESPONSE_VALUE, c.Request().ID, body).WriteTo(c.Conn())
}

// newRconServer starts an RCON server whose "slow" command never answers
// until the test ends.
func newRconServer(t *testing.T) *rcontest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := rcontest.NewServer(
		rcontest.SetSettings(rcontest.Settings{Password: testPassword}),
		rcontest.SetCommandHandler(func(c *rcontest.Context) {
			switch c.Request().Body() {
			case "status":
				reply(c, "  hostname: ein\nplayers : 0 humans\n\n")
			case "slow":
				<-release
			case "garbled":
				_, _ = rcon.NewPacket(rcon.SERVERDATA_RESPONSE_VALUE, 4242, "late").WriteTo(c.Conn())
			default:
				reply(c, "Unknown command \""+c.Request().Body()+"\"")
			}
		}),
	)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return srv
}

func dialed(t *testing.T, srv *rcontest.Server) *Rcon {
	t.Helper()
	r := New()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Connect(ctx, srv.Addr(), testPassword))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestRegisteredUnderKind(t *testing.T) {
	c, err := communicator.New(Kind)
	require.NoError(t, err)
	assert.IsType(t, &Rcon{}, c)
}

func TestConnectFailureLeavesNoState(t *testing.T) {
	r := New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := r.Connect(ctx, closedAddr(t), "secret")
	require.Error(t, err)
	assert.Nil(t, r.conn)
	assert.Equal(t, NotConnected, r.SendCmd(context.Background(), "status"))
}

func TestConnectExpiredContext(t *testing.T) {
	r := New()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := r.Connect(ctx, "127.0.0.1:27015", "secret")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSettingsOmitPassword(t *testing.T) {
	r := New()
	var s map[string]any
	require.NoError(t, json.Unmarshal(r.Settings(), &s))
	assert.Equal(t, "csgo", s["kind"])
	assert.NotContains(t, s, "password")
}

func TestExecuteTrimsReply(t *testing.T) {
	r := dialed(t, newRconServer(t))

	assert.True(t, r.Connected())
	assert.Equal(t, "hostname: ein\nplayers : 0 humans", r.SendCmd(context.Background(), "status"))
	assert.Equal(t, `Unknown command "sv_foo"`, r.SendCmd(context.Background(), "sv_foo"))
	assert.True(t, r.Connected())
}

func TestConnectWrongPassword(t *testing.T) {
	srv := newRconServer(t)
	r := New()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := r.Connect(ctx, srv.Addr(), "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, rcon.ErrAuthFailed)
	assert.False(t, r.Connected())
}

func TestSettingsAfterConnect(t *testing.T) {
	srv := newRconServer(t)
	r := dialed(t, srv)

	var s map[string]any
	require.NoError(t, json.Unmarshal(r.Settings(), &s))
	assert.Equal(t, srv.Addr(), s["address"])
	assert.NotContains(t, string(r.Settings()), testPassword)
}

func TestLocalRejectKeepsSession(t *testing.T) {
	r := dialed(t, newRconServer(t))

	out := r.SendCmd(context.Background(), "")
	assert.Equal(t, "Error: "+rcon.ErrCommandEmpty.Error(), out)
	assert.True(t, r.Connected())
	assert.Equal(t, "hostname: ein\nplayers : 0 humans", r.SendCmd(context.Background(), "status"))
}

func TestWireErrorDropsSession(t *testing.T) {
	r := dialed(t, newRconServer(t))

	out := r.SendCmd(context.Background(), "garbled")
	assert.Equal(t, "Error: "+rcon.ErrInvalidPacketID.Error(), out)
	assert.False(t, r.Connected())
	assert.Equal(t, NotConnected, r.SendCmd(context.Background(), "status"))
}

func TestAbandonedCommandDropsSession(t *testing.T) {
	srv := newRconServer(t)
	r := dialed(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	out := r.SendCmd(ctx, "slow")
	assert.Equal(t, "Error: "+context.DeadlineExceeded.Error(), out)
	assert.False(t, r.Connected())
	assert.Equal(t, NotConnected, r.SendCmd(context.Background(), "status"))

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer dialCancel()
	require.NoError(t, r.Connect(dialCtx, srv.Addr(), testPassword))
	assert.Equal(t, "hostname: ein\nplayers : 0 humans", r.SendCmd(context.Background(), "status"))
}
