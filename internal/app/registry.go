package app

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/domain"
)

// Registry is the shared set of clients and backend servers.
// Entries are fully built before insertion, so readers see either nothing
// or a complete entry. Callers never hold the lock across I/O.
type Registry struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*ClientSession
	servers map[uuid.UUID]*BackendServer

	connections atomic.Uint64
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[uuid.UUID]*ClientSession),
		servers: make(map[uuid.UUID]*BackendServer),
	}
}

func (r *Registry) InsertClient(c *ClientSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID()] = c
	log.Info().Str("module", "app.registry").Str("client", c.ID().String()).Msg("client inserted")
}

func (r *Registry) RemoveClient(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
	log.Info().Str("module", "app.registry").Str("client", id.String()).Msg("client removed")
}

func (r *Registry) InsertServer(s *BackendServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[s.ID()] = s
	log.Info().Str("module", "app.registry").Str("server", s.ID().String()).Str("name", s.Name()).Msg("server inserted")
}

func (r *Registry) Client(id uuid.UUID) (*ClientSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

func (r *Registry) Server(id uuid.UUID) (*BackendServer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.servers[id]
	return s, ok
}

// ServerInfos snapshots every server, ordered by name then id.
func (r *Registry) ServerInfos() []domain.ServerInfo {
	r.mu.RLock()
	out := make([]domain.ServerInfo, 0, len(r.servers))
	for _, s := range r.servers {
		out = append(out, s.Info())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Clients snapshots every connected client.
func (r *Registry) Clients() []domain.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c.Client())
	}
	return out
}

func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) ServerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servers)
}

// CountConnection bumps the accepted-connection counter and returns the new total.
func (r *Registry) CountConnection() uint64 {
	return r.connections.Add(1)
}

func (r *Registry) Connections() uint64 {
	return r.connections.Load()
}

// CloseServers closes every server's communicator session. Servers are
// closed outside the registry lock since Close waits for a command in flight.
func (r *Registry) CloseServers() {
	r.mu.RLock()
	servers := make([]*BackendServer, 0, len(r.servers))
	for _, s := range r.servers {
		servers = append(servers, s)
	}
	r.mu.RUnlock()

	for _, s := range servers {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Str("module", "app.registry").Str("server", s.ID().String()).Msg("close server")
		}
	}
}
