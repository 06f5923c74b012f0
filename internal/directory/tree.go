package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Source fetches directory entries from the backend.
type Source interface {
	Root(ctx context.Context) ([]Node, error)
	Children(ctx context.Context, dn string) ([]Node, error)
	Search(ctx context.Context, query string, maxResults int) ([]Node, error)
}

const (
	rootKey   = "root"
	searchKey = "search"
)

// SearchView is the flat result list shown instead of the tree while a search is active.
type SearchView struct {
	Query   string `json:"query"`
	Results []Node `json:"results"`
}

// Tree is the lazily loaded directory tree. It is safe for concurrent use.
// Fetches run without holding the lock.
type Tree struct {
	mu     sync.Mutex
	roots  []*TreeNode
	index  map[string]*TreeNode
	search *SearchView
	gens   map[string]uint64
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{
		index: make(map[string]*TreeNode),
		gens:  make(map[string]uint64),
	}
}

func childrenKey(dn string) string {
	return "children:" + strings.ToLower(dn)
}

func indexKey(dn string) string {
	return strings.ToLower(dn)
}

// begin stamps a new request for key. Callers hold mu.
func (t *Tree) begin(key string) uint64 {
	t.gens[key]++

	return t.gens[key]
}

func (t *Tree) current(key string, gen uint64) bool {
	return t.gens[key] == gen
}

// LoadRoot fetches the top level and replaces the tree with it.
// On failure the previous tree is kept.
func (t *Tree) LoadRoot(ctx context.Context, src Source) ([]*TreeNode, error) {
	t.mu.Lock()
	gen := t.begin(rootKey)
	t.mu.Unlock()

	nodes, err := src.Root(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.current(rootKey, gen) {
		return nil, ErrStale
	}

	if err != nil {
		return nil, fmt.Errorf("load directory root: %w", err)
	}

	t.roots = Format(nodes)
	t.index = make(map[string]*TreeNode, len(t.roots))

	// a root reload invalidates every pending expand
	for key := range t.gens {
		if strings.HasPrefix(key, "children:") {
			t.gens[key]++
		}
	}

	for _, n := range t.roots {
		t.index[indexKey(n.Key)] = n
	}

	return cloneAll(t.roots), nil
}

// Expand returns the children of dn, fetching them the first time.
// On failure the node stays unloaded and the tree is unchanged.
func (t *Tree) Expand(ctx context.Context, src Source, dn string) ([]*TreeNode, error) {
	t.mu.Lock()

	node, ok := t.index[indexKey(dn)]
	if !ok {
		t.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, dn)
	}

	if node.loaded {
		out := cloneAll(node.Children)
		t.mu.Unlock()

		return out, nil
	}

	key := childrenKey(dn)
	gen := t.begin(key)
	t.mu.Unlock()

	nodes, err := src.Children(ctx, dn)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.current(key, gen) {
		return nil, ErrStale
	}

	if err != nil {
		return nil, fmt.Errorf("load children of %s: %w", dn, err)
	}

	node, ok = t.index[indexKey(dn)]
	if !ok {
		return nil, ErrStale
	}

	node.Children = Format(nodes)
	node.loaded = true

	for _, c := range node.Children {
		t.index[indexKey(c.Key)] = c
	}

	return cloneAll(node.Children), nil
}

// Search fetches a flat result list and makes it the active view.
// An empty query leaves search mode and restores the tree.
func (t *Tree) Search(ctx context.Context, src Source, query string, maxResults int) (*SearchView, error) {
	query = strings.TrimSpace(query)

	t.mu.Lock()
	gen := t.begin(searchKey)

	if query == "" {
		t.search = nil
		t.mu.Unlock()

		return nil, nil
	}
	t.mu.Unlock()

	nodes, err := src.Search(ctx, query, maxResults)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.current(searchKey, gen) {
		return nil, ErrStale
	}

	if err != nil {
		return nil, fmt.Errorf("search directory for %q: %w", query, err)
	}

	if nodes == nil {
		nodes = []Node{}
	}

	t.search = &SearchView{Query: query, Results: nodes}

	return &SearchView{Query: query, Results: append([]Node{}, nodes...)}, nil
}

// ClearSearch leaves search mode. A search still in flight is discarded.
func (t *Tree) ClearSearch() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.begin(searchKey)
	t.search = nil
}

// ActiveSearch returns the search view or nil while the tree is shown.
func (t *Tree) ActiveSearch() *SearchView {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.search == nil {
		return nil
	}

	return &SearchView{Query: t.search.Query, Results: append([]Node{}, t.search.Results...)}
}

// Roots returns a copy of the loaded tree.
func (t *Tree) Roots() []*TreeNode {
	t.mu.Lock()
	defer t.mu.Unlock()

	return cloneAll(t.roots)
}

// Lookup finds a node by DN in the tree or in the active search view.
// inTree reports whether the node is part of the tree, and so can be expanded.
func (t *Tree) Lookup(dn string) (node Node, inTree bool, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n, found := t.index[indexKey(dn)]; found {
		return n.Node, true, true
	}

	if t.search != nil {
		for i := range t.search.Results {
			if strings.EqualFold(t.search.Results[i].DistinguishedName, dn) {
				return t.search.Results[i], false, true
			}
		}
	}

	return Node{}, false, false
}

// Reset drops the tree, the search view and every pending request.
func (t *Tree) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range t.gens {
		t.gens[key]++
	}

	t.roots = nil
	t.index = make(map[string]*TreeNode)
	t.search = nil
}
