package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

var errNoSuchServer = errors.New("no such server")

// maxSuggestDistance bounds how far a name may be from a typo to be suggested.
const maxSuggestDistance = 4

// resolveServer accepts a server id or a server name. Names are matched
// case-insensitively against the relay's server list.
func resolveServer(c *conn, arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}

	reply, _, err := c.request(protocol.ListServers{})
	if err != nil {
		return uuid.Nil, err
	}
	list, ok := reply.(protocol.ServerList)
	if !ok {
		return uuid.Nil, fmt.Errorf("unexpected reply %T to server list", reply)
	}
	return matchServer(list.Servers, arg)
}

func matchServer(servers []domain.ServerInfo, name string) (uuid.UUID, error) {
	var found []domain.ServerInfo
	for _, s := range servers {
		if strings.EqualFold(s.Name, name) {
			found = append(found, s)
		}
	}
	switch len(found) {
	case 1:
		return found[0].ID, nil
	case 0:
		if hint := suggest(servers, name); hint != "" {
			return uuid.Nil, fmt.Errorf("%w %q, did you mean %q?", errNoSuchServer, name, hint)
		}
		return uuid.Nil, fmt.Errorf("%w %q", errNoSuchServer, name)
	default:
		return uuid.Nil, fmt.Errorf("server name %q is ambiguous, use its id", name)
	}
}

func suggest(servers []domain.ServerInfo, name string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, s := range servers {
		d := levenshtein.ComputeDistance(strings.ToLower(s.Name), strings.ToLower(name))
		if d < bestDist {
			best, bestDist = s.Name, d
		}
	}
	return best
}
