// Package cli implements relayctl, a line based console for the relay.
package cli

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

const defaultURL = "ws://127.0.0.1:18249/ws"

type options struct {
	url     string
	name    string
	timeout time.Duration
	asJSON  bool
	noColor bool
}

func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "relayctl",
		Short:         "Send commands to backend servers through a relay",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.url, "url", defaultURL, "Relay websocket URL")
	flags.StringVar(&opts.name, "name", "", "Display name to connect with")
	flags.DurationVar(&opts.timeout, "timeout", 15*time.Second, "Timeout for each network step")
	flags.BoolVar(&opts.asJSON, "json", false, "Print replies as JSON")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colour output")

	rootCmd.AddCommand(
		newWhoamiCmd(opts),
		newServersCmd(opts),
		newSendCmd(opts),
		newLogCmd(opts),
		newStatusCmd(opts),
		newCreateCmd(opts),
		newConnectCmd(opts),
	)
	return rootCmd
}

// endpoint adds the display name to the relay URL.
func (o *options) endpoint() (string, error) {
	u, err := url.Parse(o.url)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if o.name != "" {
		q := u.Query()
		q.Set("name", o.name)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// request builds the command to send once the connection is up, so it
// can resolve server names against the relay first.
type request func(c *conn) (protocol.ClientCommand, error)

func fixed(cmd protocol.ClientCommand) request {
	return func(*conn) (protocol.ClientCommand, error) { return cmd, nil }
}

func withServer(arg string, build func(id uuid.UUID) protocol.ClientCommand) request {
	return func(c *conn) (protocol.ClientCommand, error) {
		id, err := resolveServer(c, arg)
		if err != nil {
			return nil, err
		}
		return build(id), nil
	}
}

// run dials the relay, sends one command and prints the reply.
// A nil request prints the client's identity instead.
func run(cmd *cobra.Command, opts *options, build request) error {
	endpoint, err := opts.endpoint()
	if err != nil {
		return err
	}
	c, err := dial(cmd.Context(), endpoint, opts.timeout)
	if err != nil {
		return err
	}
	defer c.close()

	w := cmd.OutOrStdout()
	if build == nil {
		if opts.asJSON {
			return writeJSON(w, protocol.Identity{Client: c.self})
		}
		renderClient(w, c.self)
		return nil
	}

	req, err := build(c)
	if err != nil {
		return err
	}
	reply, frame, err := c.request(req)
	if err != nil {
		return err
	}
	if opts.asJSON {
		return renderJSON(w, frame)
	}
	render(w, reply)
	return nil
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity the relay assigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, nil)
		},
	}
}

func newServersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List backend servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, fixed(protocol.ListServers{}))
		},
	}
}

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send <server> <command...>",
		Short: "Forward a command to a backend server, by id or name",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args[1:], " ")
			return run(cmd, opts, withServer(args[0], func(id uuid.UUID) protocol.ClientCommand {
				return protocol.SendCommand{ServerID: id, Cmd: line}
			}))
		},
	}
}

func newLogCmd(opts *options) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "log <server>",
		Short: "Show one page of a server's exchange log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paged := cmd.Flags().Changed("page")
			return run(cmd, opts, withServer(args[0], func(id uuid.UUID) protocol.ClientCommand {
				req := protocol.RequestLog{ServerID: &id}
				if paged {
					req.Page = &page
				}
				return req
			}))
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number (default: newest page)")
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <server>",
		Short: "Show one backend server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, withServer(args[0], func(id uuid.UUID) protocol.ClientCommand {
				return protocol.RequestStatus{ServerID: id}
			}))
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a new backend server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, fixed(protocol.CreateServer{Name: args[0], Kind: domain.CommunicatorKind(kind)}))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Communicator kind, e.g. csgo (default: none)")
	return cmd
}

func newConnectCmd(opts *options) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "connect <server> <address>",
		Short: "Connect a backend server's communicator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, withServer(args[0], func(id uuid.UUID) protocol.ClientCommand {
				return protocol.ConnectServer{ServerID: id, Address: args[1], Password: password}
			}))
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "RCON password")
	return cmd
}
