package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/communicator"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// PageSize is the number of messages in one log page.
const PageSize = 50

// NoCommunicator is the response recorded for commands sent to a server
// that has no communicator.
const NoCommunicator = "No communicator has been set up!"

var nullSettings = json.RawMessage("null")

// BackendServer owns at most one communicator and records every exchange.
//
// dispatch serialises Connect and SendCmd so the communicator sees one
// call at a time. mu guards status and messages and is never held across
// communicator I/O, so Info and GetPage stay responsive while a command
// is in flight.
type BackendServer struct {
	id   uuid.UUID
	name string
	comm core.Communicator

	dispatch sync.Mutex

	mu       sync.RWMutex
	status   domain.Status
	settings json.RawMessage
	messages []domain.Message
}

// NewBackendServer wraps comm, which may be nil.
func NewBackendServer(name string, comm core.Communicator) *BackendServer {
	s := &BackendServer{
		id:       uuid.New(),
		name:     name,
		comm:     comm,
		status:   domain.StatusMissing,
		settings: nullSettings,
	}
	if comm != nil {
		s.status = domain.StatusDisconnected
		s.settings = comm.Settings()
	}
	return s
}

// CreateServer builds a server whose communicator is chosen by kind.
// An empty kind yields a server without a communicator.
func CreateServer(name string, kind domain.CommunicatorKind) (*BackendServer, error) {
	if kind == "" {
		return NewBackendServer(name, nil), nil
	}
	comm, err := communicator.New(kind)
	if err != nil {
		return nil, fmt.Errorf("create server %q: %w", name, err)
	}
	return NewBackendServer(name, comm), nil
}

func (s *BackendServer) ID() uuid.UUID { return s.id }
func (s *BackendServer) Name() string  { return s.name }

func (s *BackendServer) Status() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *BackendServer) setStatus(st domain.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// refreshSettings must be called with dispatch held.
func (s *BackendServer) refreshSettings() {
	settings := s.comm.Settings()
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// Connect runs the communicator's Connect. Without a communicator it is a
// no-op success and the status stays MISSING.
func (s *BackendServer) Connect(ctx context.Context, address, password string) error {
	if s.comm == nil {
		return nil
	}

	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.setStatus(domain.StatusConnecting)
	err := s.comm.Connect(ctx, address, password)
	s.refreshSettings()
	if err != nil {
		s.setStatus(domain.StatusDisconnected)
		log.Warn().Err(err).Str("module", "app.server").Str("server", s.id.String()).Str("address", address).Msg("connect failed")
		return fmt.Errorf("%w: %w", core.ErrConnection, err)
	}
	s.setStatus(domain.StatusConnected)
	log.Info().Str("module", "app.server").Str("server", s.id.String()).Str("address", address).Msg("connected")
	return nil
}

// SendCmd logs cmd as IN, dispatches it, logs the response as OUT and
// returns it.
func (s *BackendServer) SendCmd(ctx context.Context, cmd string) string {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.appendMessage(domain.NewMessage(cmd, domain.DirectionIn))

	resp := NoCommunicator
	if s.comm != nil {
		resp = s.comm.SendCmd(ctx, cmd)
	}

	s.appendMessage(domain.NewMessage(resp, domain.DirectionOut))
	s.checkLink()
	return resp
}

// checkLink moves a CONNECTED server to DISCONNECTED once its
// communicator reports the session gone. Must be called with dispatch held.
func (s *BackendServer) checkLink() {
	lr, ok := s.comm.(core.LinkReporter)
	if !ok || lr.Connected() {
		return
	}
	s.mu.Lock()
	lost := s.status == domain.StatusConnected
	if lost {
		s.status = domain.StatusDisconnected
	}
	s.mu.Unlock()
	if lost {
		log.Warn().Str("module", "app.server").Str("server", s.id.String()).Msg("communicator lost its connection")
	}
}

func (s *BackendServer) appendMessage(m domain.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
}

// Close ends the communicator's session when it supports closing. The
// server stays registered and can Connect again.
func (s *BackendServer) Close() error {
	closer, ok := s.comm.(io.Closer)
	if !ok {
		return nil
	}
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	err := closer.Close()
	s.mu.Lock()
	if s.status == domain.StatusConnected {
		s.status = domain.StatusDisconnected
	}
	s.mu.Unlock()
	return err
}

// GetPage returns page n of the message log. Pages past the end are empty.
func (s *BackendServer) GetPage(n int) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < 0 {
		return []domain.Message{}
	}
	start := n * PageSize
	if start >= len(s.messages) {
		return []domain.Message{}
	}
	end := min(start+PageSize, len(s.messages))
	out := make([]domain.Message, end-start)
	copy(out, s.messages[start:end])
	return out
}

// LastPage is the index of the newest page, 0 for an empty log.
func (s *BackendServer) LastPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return 0
	}
	return (len(s.messages) - 1) / PageSize
}

func (s *BackendServer) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Settings is the communicator's settings as of the last Connect, JSON
// null without a communicator.
func (s *BackendServer) Settings() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(json.RawMessage(nil), s.settings...)
}

// Info returns a value snapshot. Clients is left nil.
func (s *BackendServer) Info() domain.ServerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ServerInfo{
		ID:       s.id,
		Name:     s.name,
		Status:   s.status,
		Settings: append(json.RawMessage(nil), s.settings...),
	}
}
