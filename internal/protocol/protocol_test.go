package protocol

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Relay/internal/domain"
)

func frameOf(js string) []byte {
	return []byte(base64.StdEncoding.EncodeToString([]byte(js)))
}

func ptr[T any](v T) *T { return &v }

func TestClientCommandRoundTrip(t *testing.T) {
	id := uuid.New()
	cmds := map[string]ClientCommand{
		"list":         ListServers{},
		"command":      SendCommand{ServerID: id, Cmd: "status"},
		"set server":   SetServer{ServerID: id},
		"log default":  RequestLog{},
		"log page":     RequestLog{ServerID: &id, Page: ptr(3)},
		"status":       RequestStatus{ServerID: id},
		"create":       CreateServer{Name: "new", Kind: "csgo"},
		"create bare":  CreateServer{Name: "bare"},
		"create empty": CreateServer{},
		"connect":      ConnectServer{ServerID: id, Address: "127.0.0.1:27015", Password: "pw"},
	}
	for name, cmd := range cmds {
		t.Run(name, func(t *testing.T) {
			frame, err := EncodeClientCommand(cmd)
			require.NoError(t, err)

			got, err := DecodeClientCommand(frame)
			require.NoError(t, err)
			assert.Equal(t, cmd, got)

			again, err := EncodeClientCommand(got)
			require.NoError(t, err)
			assert.Equal(t, string(frame), string(again))
		})
	}
}

func TestServerCommandRoundTrip(t *testing.T) {
	srvID := uuid.New()
	info := domain.ServerInfo{
		ID:       srvID,
		Name:     "ein csgo server",
		Status:   domain.StatusConnected,
		Settings: json.RawMessage(`{"kind":"csgo"}`),
	}
	cmds := map[string]ServerCommand{
		"identity":          Identity{Client: domain.Client{ID: uuid.New(), Name: "guest", Hue: 200}},
		"identity attached": Identity{Client: domain.Client{ID: uuid.New(), Name: "guest", Hue: 7, Server: &srvID}},
		"server list":       ServerList{Servers: []domain.ServerInfo{info}},
		"empty list":        ServerList{Servers: []domain.ServerInfo{}},
		"print":             Print{Text: "Unknown command"},
		"status":            ServerStatus{Info: info},
		"log":               ServerLogPage{ServerID: srvID, PageNo: 1, Messages: []domain.Message{{Timestamp: 1700000000, Body: "status", Direction: domain.DirectionIn}}},
		"empty log":         ServerLogPage{ServerID: srvID, Messages: []domain.Message{}},
		"output":            Output{ServerID: srvID, Cmd: "status", Out: "hostname: ein"},
	}
	for name, cmd := range cmds {
		t.Run(name, func(t *testing.T) {
			frame, err := EncodeServerCommand(cmd)
			require.NoError(t, err)

			got, err := DecodeServerCommand(frame)
			require.NoError(t, err)
			assert.Equal(t, cmd, got)

			again, err := EncodeServerCommand(got)
			require.NoError(t, err)
			assert.Equal(t, string(frame), string(again))
		})
	}
}

func TestEnvelopeWireShape(t *testing.T) {
	frame, err := EncodeServerCommand(Print{Text: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Print","body":"hi"}`, string(Payload(frame)))

	frame, err = EncodeClientCommand(ListServers{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ListServers"}`, string(Payload(frame)))

	id := uuid.MustParse("6f1c2b8e-0d9a-4c57-9a43-1b6f0c7d2e11")
	frame, err = EncodeClientCommand(SendCommand{ServerID: id, Cmd: "say hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Command","body":{"id":"6f1c2b8e-0d9a-4c57-9a43-1b6f0c7d2e11","cmd":"say hi"}}`, string(Payload(frame)))
}

func TestDecodeBrowserFrames(t *testing.T) {
	id := "6f1c2b8e-0d9a-4c57-9a43-1b6f0c7d2e11"

	cmd, err := DecodeClientCommand(frameOf(`{"type":"SetServer","body":"` + id + `"}`))
	require.NoError(t, err)
	assert.Equal(t, SetServer{ServerID: uuid.MustParse(id)}, cmd)

	cmd, err = DecodeClientCommand(frameOf(`{"type":"ServerLog"}`))
	require.NoError(t, err)
	assert.Equal(t, RequestLog{}, cmd)

	cmd, err = DecodeClientCommand(frameOf(`{"type":"CreateServer"}`))
	require.NoError(t, err)
	assert.Equal(t, CreateServer{}, cmd)
}

func TestCreateServerWithoutBodyWireShape(t *testing.T) {
	frame, err := EncodeClientCommand(CreateServer{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"CreateServer"}`, string(Payload(frame)))
}

func TestDecodeClientCommandErrors(t *testing.T) {
	tests := map[string][]byte{
		"not base64":      []byte("%%%not-base64%%%"),
		"not json":        frameOf(`{"type":`),
		"invalid utf8":    []byte(base64.StdEncoding.EncodeToString([]byte{'"', 0xff, 0xfe, '"'})),
		"unknown tag":     frameOf(`{"type":"Explode"}`),
		"missing type":    frameOf(`{"body":"x"}`),
		"json array":      frameOf(`[1,2,3]`),
		"missing body":    frameOf(`{"type":"Command"}`),
		"bad uuid":        frameOf(`{"type":"SetServer","body":"not-a-uuid"}`),
		"wrong body type": frameOf(`{"type":"Command","body":"status"}`),
		"empty frame":     {},
	}
	for name, frame := range tests {
		t.Run(name, func(t *testing.T) {
			cmd, err := DecodeClientCommand(frame)
			assert.Nil(t, cmd)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeServerCommandUnknownTag(t *testing.T) {
	_, err := DecodeServerCommand(frameOf(`{"type":"ForeignCommand","body":{}}`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestPayload(t *testing.T) {
	assert.Equal(t, `{"type":"x"}`, string(Payload(frameOf(`{"type":"x"}`))))
	assert.Nil(t, Payload([]byte("***")))
}
