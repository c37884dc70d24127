package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the connection state of a backend server's communicator.
type Status string

const (
	StatusDisconnected Status = "DISCONNECTED"
	StatusConnecting   Status = "CONNECTING"
	StatusConnected    Status = "CONNECTED"
	StatusMissing      Status = "MISSING"
)

// CommunicatorKind selects a communicator implementation, e.g. "csgo".
type CommunicatorKind string

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Message is one entry of a server's exchange log.
type Message struct {
	Timestamp int64     `json:"timestamp"`
	Body      string    `json:"body"`
	Direction Direction `json:"msg_type"`
}

func NewMessage(body string, dir Direction) Message {
	return Message{
		Timestamp: time.Now().Unix(),
		Body:      body,
		Direction: dir,
	}
}

// ServerInfo is a value snapshot of a backend server.
// Clients is never filled in by the server itself.
type ServerInfo struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Status   Status          `json:"communicator"`
	Settings json.RawMessage `json:"settings"`
	Clients  []Client        `json:"clients"`
}
