package directory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Workspace is the browser state of one console session.
type Workspace struct {
	Tree      *Tree
	Selection *Selection
	Resolver  *Resolver

	mu       sync.Mutex
	lastUsed time.Time
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	tree := NewTree()
	selection := NewSelection()

	return &Workspace{
		Tree:      tree,
		Selection: selection,
		Resolver:  NewResolver(tree, selection),
	}
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastUsed = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lastUsed
}

// Workspaces keeps one Workspace per session and expires idle ones.
type Workspaces struct {
	mu    sync.Mutex
	items map[string]*Workspace
	idle  time.Duration
	now   func() time.Time
}

// NewWorkspaces returns a registry expiring workspaces unused for idle.
func NewWorkspaces(idle time.Duration) *Workspaces {
	return &Workspaces{
		items: make(map[string]*Workspace),
		idle:  idle,
		now:   time.Now,
	}
}

// Get returns the workspace of a session, creating it on first use.
func (w *Workspaces) Get(id string) *Workspace {
	w.mu.Lock()
	defer w.mu.Unlock()

	ws, ok := w.items[id]
	if !ok {
		ws = NewWorkspace()
		w.items[id] = ws
	}

	ws.touch(w.now())

	return ws
}

// Drop forgets the workspace of a session.
func (w *Workspaces) Drop(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.items, id)
}

// Len returns the number of live workspaces.
func (w *Workspaces) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.items)
}

// Sweep drops every workspace idle for longer than the configured timeout.
func (w *Workspaces) Sweep() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	deadline := w.now().Add(-w.idle)
	dropped := 0

	for id, ws := range w.items {
		if ws.idleSince().Before(deadline) {
			delete(w.items, id)
			dropped++
		}
	}

	return dropped
}

// Run sweeps periodically until ctx is done.
func (w *Workspaces) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := w.Sweep(); n > 0 {
				log.Debug().Int("dropped", n).Msg("expired idle directory workspaces")
			}
		}
	}
}
