package directory

import (
	"context"
	"fmt"
	"sync"
)

// Delta is the change a checkbox event made to the selection.
type Delta struct {
	Added   []Node `json:"added"`
	Removed []Node `json:"removed"`
}

// Resolver applies checkbox events on the tree to the selection.
type Resolver struct {
	tree      *Tree
	selection *Selection

	mu   sync.Mutex
	gens map[string]uint64 // per node, bumped by every checkbox event
}

// NewResolver binds a tree to a selection.
func NewResolver(tree *Tree, selection *Selection) *Resolver {
	return &Resolver{tree: tree, selection: selection, gens: make(map[string]uint64)}
}

func (r *Resolver) begin(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gens[key]++

	return r.gens[key]
}

// Check resolves a checkbox change on dn.
//
// Checking a user adds it. Checking a container adds its directly loaded user children,
// fetching them first when the container was never expanded. Unchecking removes only
// the users this node contributed. A failed fetch leaves the selection unchanged.
// A check still waiting for children is superseded by any later event on the same node
// and returns ErrStale without touching the selection.
func (r *Resolver) Check(ctx context.Context, src Source, dn string, checked bool) (Delta, error) {
	node, inTree, ok := r.tree.Lookup(dn)
	if !ok {
		return Delta{}, fmt.Errorf("%w: %s", ErrUnknownNode, dn)
	}

	source := node.DistinguishedName
	key := indexKey(source)
	gen := r.begin(key)

	if !checked {
		return Delta{Removed: r.selection.Release(source)}, nil
	}

	if node.IsUser() {
		return Delta{Added: r.selection.Add(source, node)}, nil
	}

	if !node.IsContainer() {
		return Delta{}, nil
	}

	children, err := r.children(ctx, src, node, inTree)
	if err != nil {
		return Delta{}, err
	}

	var users []Node

	for i := range children {
		if children[i].IsUser() {
			users = append(users, children[i])
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gens[key] != gen {
		return Delta{}, ErrStale
	}

	return Delta{Added: r.selection.Add(source, users...)}, nil
}

func (r *Resolver) children(ctx context.Context, src Source, node Node, inTree bool) ([]Node, error) {
	if !inTree {
		nodes, err := src.Children(ctx, node.DistinguishedName)
		if err != nil {
			return nil, fmt.Errorf("load children of %s: %w", node.DistinguishedName, err)
		}

		return nodes, nil
	}

	loaded, err := r.tree.Expand(ctx, src, node.DistinguishedName)
	if err != nil {
		return nil, err
	}

	out := make([]Node, len(loaded))
	for i, n := range loaded {
		out[i] = n.Node
	}

	return out, nil
}
