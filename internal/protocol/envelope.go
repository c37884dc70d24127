package protocol

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dkeye/Relay/internal/core"
)

// ErrDecode wraps every failure to turn a frame into a command.
var ErrDecode = errors.New("decode error")

type envelope struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body,omitempty"`
}

func encode(tag string, body any) (core.Frame, error) {
	env := envelope{Type: tag}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", tag, err)
		}
		env.Body = b
	}
	js, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", tag, err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(js)))
	base64.StdEncoding.Encode(out, js)
	return out, nil
}

func decode(frame []byte) (envelope, error) {
	frame = bytes.TrimSpace(frame)
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(frame)))
	n, err := base64.StdEncoding.Decode(raw, frame)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}
	raw = raw[:n]
	if !utf8.Valid(raw) {
		return envelope{}, fmt.Errorf("%w: payload is not valid UTF-8", ErrDecode)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: json: %v", ErrDecode, err)
	}
	if env.Type == "" {
		return envelope{}, fmt.Errorf("%w: missing type", ErrDecode)
	}
	return env, nil
}

func decodeBody(env envelope, v any) error {
	if len(env.Body) == 0 {
		return fmt.Errorf("%w: %s requires a body", ErrDecode, env.Type)
	}
	if err := json.Unmarshal(env.Body, v); err != nil {
		return fmt.Errorf("%w: %s body: %v", ErrDecode, env.Type, err)
	}
	return nil
}

// Payload returns the decoded JSON text of a frame, for diagnostics.
// It returns nil when the frame is not base64.
func Payload(frame []byte) []byte {
	raw, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(frame)))
	if err != nil {
		return nil
	}
	return raw
}
