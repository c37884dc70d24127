// Package orch routes client commands to the registry and backend servers.
package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

var (
	ErrUnknownServer = errors.New("unknown server")
	ErrUnknownClient = errors.New("unknown client")
	ErrNoServer      = errors.New("no server selected")
)

const (
	UnknownCommand = "Unknown command"
	RateLimited    = "Rate limited"
)

// DefaultServerName names servers created without a name.
const DefaultServerName = "new server"

type Orchestrator struct {
	Registry *app.Registry
	Limiter  *RateLimiter
	// CommandTimeout bounds one forwarded command; zero means no bound.
	CommandTimeout time.Duration
	// ConnectTimeout bounds a client requested Connect; zero means no bound.
	ConnectTimeout time.Duration
}

// Accept registers a new client and queues its Identity as the first
// outbound command.
func (o *Orchestrator) Accept(name string, out core.Sender) (*app.ClientSession, error) {
	sess := app.NewClientSession(name, out)
	frame, err := protocol.EncodeServerCommand(protocol.Identity{Client: sess.Client()})
	if err != nil {
		return nil, err
	}
	if err := out.Send(frame); err != nil {
		return nil, err
	}

	o.Registry.InsertClient(sess)
	n := o.Registry.CountConnection()
	log.Info().Str("module", "orch").Str("client", sess.ID().String()).Uint64("connections", n).Msg("client accepted")
	return sess, nil
}

func (o *Orchestrator) Disconnect(id uuid.UUID) {
	o.Registry.RemoveClient(id)
	o.Limiter.Forget(id)
}

// Handle runs cmd for client sid and returns the reply for that client,
// or nil. Dispatch failures come back as a Print reply.
func (o *Orchestrator) Handle(ctx context.Context, sid uuid.UUID, cmd protocol.ClientCommand) protocol.ServerCommand {
	if !o.Limiter.Allow(sid) {
		log.Warn().Str("module", "orch").Str("client", sid.String()).Msg("rate limited")
		return protocol.Print{Text: RateLimited}
	}

	reply, err := o.dispatch(ctx, sid, cmd)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("client", sid.String()).Msg("dispatch failed")
		return protocol.Print{Text: err.Error()}
	}
	return reply
}

func (o *Orchestrator) dispatch(ctx context.Context, sid uuid.UUID, cmd protocol.ClientCommand) (protocol.ServerCommand, error) {
	switch c := cmd.(type) {
	case protocol.ListServers:
		return protocol.ServerList{Servers: o.Registry.ServerInfos()}, nil
	case protocol.SendCommand:
		return o.sendCommand(ctx, c)
	case protocol.SetServer:
		return o.setServer(sid, c.ServerID)
	case protocol.RequestLog:
		return o.serverLog(sid, c)
	case protocol.RequestStatus:
		srv, err := o.server(c.ServerID)
		if err != nil {
			return nil, err
		}
		return protocol.ServerStatus{Info: srv.Info()}, nil
	case protocol.CreateServer:
		return o.createServer(c)
	case protocol.ConnectServer:
		return o.connectServer(ctx, c)
	default:
		return protocol.Print{Text: UnknownCommand}, nil
	}
}

func (o *Orchestrator) server(id uuid.UUID) (*app.BackendServer, error) {
	srv, ok := o.Registry.Server(id)
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownServer, id)
	}
	return srv, nil
}

func (o *Orchestrator) sendCommand(ctx context.Context, c protocol.SendCommand) (protocol.ServerCommand, error) {
	srv, err := o.server(c.ServerID)
	if err != nil {
		return nil, err
	}
	// The backend session is shared by every client, so a command is not
	// abandoned when the issuing client goes away; only CommandTimeout
	// bounds it.
	ctx = context.WithoutCancel(ctx)
	if o.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.CommandTimeout)
		defer cancel()
	}
	out := srv.SendCmd(ctx, c.Cmd)
	return protocol.Output{ServerID: srv.ID(), Cmd: c.Cmd, Out: out}, nil
}

func (o *Orchestrator) setServer(sid, serverID uuid.UUID) (protocol.ServerCommand, error) {
	srv, err := o.server(serverID)
	if err != nil {
		return nil, err
	}
	client, ok := o.Registry.Client(sid)
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownClient, sid)
	}
	client.Attach(serverID)
	log.Debug().Str("module", "orch").Str("client", sid.String()).Str("server", serverID.String()).Msg("server attached")
	return protocol.ServerStatus{Info: srv.Info()}, nil
}

func (o *Orchestrator) serverLog(sid uuid.UUID, c protocol.RequestLog) (protocol.ServerCommand, error) {
	var serverID uuid.UUID
	if c.ServerID != nil {
		serverID = *c.ServerID
	} else {
		client, ok := o.Registry.Client(sid)
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrUnknownClient, sid)
		}
		id, ok := client.AttachedServer()
		if !ok {
			return nil, ErrNoServer
		}
		serverID = id
	}

	srv, err := o.server(serverID)
	if err != nil {
		return nil, err
	}
	page := srv.LastPage()
	if c.Page != nil {
		page = *c.Page
	}
	return protocol.ServerLogPage{
		ServerID: srv.ID(),
		PageNo:   page,
		Messages: srv.GetPage(page),
	}, nil
}

func (o *Orchestrator) createServer(c protocol.CreateServer) (protocol.ServerCommand, error) {
	if c.Name == "" {
		c.Name = DefaultServerName
	}
	if err := domain.ValidateName(c.Name); err != nil {
		return nil, err
	}
	srv, err := app.CreateServer(c.Name, c.Kind)
	if err != nil {
		return nil, err
	}
	o.Registry.InsertServer(srv)
	return protocol.ServerStatus{Info: srv.Info()}, nil
}

func (o *Orchestrator) connectServer(ctx context.Context, c protocol.ConnectServer) (protocol.ServerCommand, error) {
	srv, err := o.server(c.ServerID)
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	if o.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.ConnectTimeout)
		defer cancel()
	}
	if err := srv.Connect(ctx, c.Address, c.Password); err != nil {
		return nil, err
	}
	return protocol.ServerStatus{Info: srv.Info()}, nil
}
