package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

var (
	inColor     = color.New(color.FgCyan)
	outColor    = color.New(color.FgGreen)
	metaColor   = color.New(color.Faint)
	noticeColor = color.New(color.FgYellow)
	statusColor = map[domain.Status]*color.Color{
		domain.StatusConnected:    color.New(color.FgGreen),
		domain.StatusConnecting:   color.New(color.FgYellow),
		domain.StatusDisconnected: color.New(color.FgRed),
		domain.StatusMissing:      color.New(color.FgMagenta),
	}
)

// renderJSON writes the envelope JSON carried by frame, indented.
func renderJSON(w io.Writer, frame []byte) error {
	raw := protocol.Payload(frame)
	if raw == nil {
		return fmt.Errorf("%w: frame is not base64", protocol.ErrDecode)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func render(w io.Writer, cmd protocol.ServerCommand) {
	switch c := cmd.(type) {
	case protocol.Identity:
		renderClient(w, c.Client)
	case protocol.ServerList:
		if len(c.Servers) == 0 {
			metaColor.Fprintln(w, "no servers")
		}
		for _, info := range c.Servers {
			renderInfo(w, info)
		}
	case protocol.ServerStatus:
		renderInfo(w, c.Info)
		if len(c.Info.Settings) > 0 && string(c.Info.Settings) != "null" {
			metaColor.Fprintf(w, "  settings %s\n", c.Info.Settings)
		}
	case protocol.Output:
		inColor.Fprintf(w, "> %s\n", c.Cmd)
		outColor.Fprintln(w, c.Out)
	case protocol.ServerLogPage:
		metaColor.Fprintf(w, "server %s page %d\n", c.ServerID, c.PageNo)
		for _, m := range c.Messages {
			renderMessage(w, m)
		}
	case protocol.Print:
		noticeColor.Fprintln(w, c.Text)
	default:
		fmt.Fprintf(w, "%+v\n", c)
	}
}

func renderClient(w io.Writer, c domain.Client) {
	fmt.Fprintf(w, "%s %s ", c.ID, c.Name)
	metaColor.Fprintf(w, "hue %d", c.Hue)
	if c.Server != nil {
		metaColor.Fprintf(w, " server %s", c.Server)
	}
	fmt.Fprintln(w)
}

func renderInfo(w io.Writer, info domain.ServerInfo) {
	st, ok := statusColor[info.Status]
	if !ok {
		st = metaColor
	}
	fmt.Fprintf(w, "%s  ", info.ID)
	st.Fprintf(w, "%-12s", info.Status)
	fmt.Fprintf(w, "  %s\n", info.Name)
}

func renderMessage(w io.Writer, m domain.Message) {
	ts := time.Unix(m.Timestamp, 0).Format(time.DateTime)
	metaColor.Fprintf(w, "[%s] ", ts)
	body := strings.TrimRight(m.Body, "\n")
	if m.Direction == domain.DirectionIn {
		inColor.Fprintf(w, "> %s\n", body)
		return
	}
	outColor.Fprintln(w, body)
}

// writeJSON renders a command the way it travels, without the base64 layer.
func writeJSON(w io.Writer, cmd protocol.ServerCommand) error {
	frame, err := protocol.EncodeServerCommand(cmd)
	if err != nil {
		return err
	}
	return renderJSON(w, frame)
}
