package app

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// ClientSession is one connected client. Identity is fixed at creation;
// only the attached server changes.
type ClientSession struct {
	id   uuid.UUID
	name string
	hue  uint8
	out  core.Sender

	mu     sync.RWMutex
	server *uuid.UUID
}

// NewClientSession assigns a fresh id and a random display hue.
func NewClientSession(name string, out core.Sender) *ClientSession {
	return &ClientSession{
		id:   uuid.New(),
		name: name,
		hue:  uint8(rand.Intn(256)),
		out:  out,
	}
}

func (c *ClientSession) ID() uuid.UUID       { return c.id }
func (c *ClientSession) Sender() core.Sender { return c.out }

func (c *ClientSession) Attach(serverID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.server = &serverID
}

func (c *ClientSession) AttachedServer() (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.server == nil {
		return uuid.Nil, false
	}
	return *c.server, true
}

// Client returns the wire view of the session.
func (c *ClientSession) Client() domain.Client {
	out := domain.Client{ID: c.id, Name: c.name, Hue: c.hue}
	if id, ok := c.AttachedServer(); ok {
		out.Server = &id
	}
	return out
}
