// Package domain holds the relay's wire entities and the name rules they share.
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxNameLen = 36

var (
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")
)

// Client is the wire view of a connected client session. Server is the
// backend the client currently has selected, if any.
type Client struct {
	ID     uuid.UUID  `json:"uuid"`
	Name   string     `json:"name"`
	Hue    uint8      `json:"hue"`
	Server *uuid.UUID `json:"server"`
}

func ValidateName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}
