package communicator

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

var ErrUnknownKind = errors.New("unknown communicator kind")

type Constructor func() core.Communicator

var (
	mu    sync.RWMutex
	ctors = make(map[domain.CommunicatorKind]Constructor)
)

// Register makes a communicator kind available to New.
// It panics on a duplicate or nil constructor.
func Register(kind domain.CommunicatorKind, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if ctor == nil {
		panic("communicator: Register constructor is nil")
	}
	if _, dup := ctors[kind]; dup {
		panic("communicator: Register called twice for kind " + string(kind))
	}
	ctors[kind] = ctor
}

func New(kind domain.CommunicatorKind) (core.Communicator, error) {
	mu.RLock()
	ctor, ok := ctors[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return ctor(), nil
}

// Kinds returns the registered kinds, sorted.
func Kinds() []domain.CommunicatorKind {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]domain.CommunicatorKind, 0, len(ctors))
	for k := range ctors {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
