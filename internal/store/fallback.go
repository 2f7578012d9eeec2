package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/dyluth/ucm/internal/logger"
)

// state is the connection state of a remote backend. Once it leaves pending
// it never changes again.
type state int

const (
	statePending state = iota
	stateDirect
	stateFallback
)

func (s state) String() string {
	switch s {
	case stateDirect:
		return "direct"
	case stateFallback:
		return "fallback"
	default:
		return "pending"
	}
}

// guard owns the one-way downgrade of a remote backend to local storage.
// The remote is probed on first use; a failed probe selects the local store
// for the rest of the process.
type guard struct {
	dataDir string
	log     *logger.Logger
	probe   func(ctx context.Context) error

	mu    sync.Mutex
	state state
	local *Local
}

// fallBack switches to local storage. Callers hold g.mu or own g exclusively.
func (g *guard) fallBack() error {
	local, err := NewLocal(g.dataDir, g.log)
	if err != nil {
		return fmt.Errorf("failed to open local fallback: %w", err)
	}
	g.local = local
	g.state = stateFallback
	return nil
}

// resolve decides the state on first use. It returns the local store when in
// fallback, or nil in direct mode. A probe interrupted by ctx leaves the state
// undecided.
func (g *guard) resolve(ctx context.Context) (*Local, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == statePending {
		if err := g.probe(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.log.Error("Remote storage unreachable, falling back to local JSON storage", "error", err)
			if err := g.fallBack(); err != nil {
				return nil, err
			}
		} else {
			g.log.Debug("Remote storage reachable")
			g.state = stateDirect
		}
	}

	if g.state == stateFallback {
		return g.local, nil
	}
	return nil, nil
}

func (g *guard) current() state {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// fellBack reports whether the backend has downgraded to local storage.
func (g *guard) fellBack() bool {
	return g.current() == stateFallback
}

// displayName renders a backend name with its fallback suffix.
func (g *guard) displayName(name string) string {
	if g.current() == stateFallback {
		return name + " (fallback: local)"
	}
	return name
}
