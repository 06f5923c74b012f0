package directory

import (
	"strings"
	"sync"
)

// ManualSource attributes entries added outside of a tree checkbox.
const ManualSource = "manual"

type entry struct {
	node    Node
	sources map[string]struct{}
}

// Selection is the ordered, deduplicated set of users a bulk action targets.
// Entries are keyed by distinguished name, the first Node seen for a DN is kept.
//
// Every entry remembers which checked nodes contributed it, so unchecking a node only
// removes the users that node brought in. It is safe for concurrent use.
type Selection struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*entry
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{entries: make(map[string]*entry)}
}

func selectionKey(dn string) string {
	return strings.ToLower(dn)
}

// Add attributes nodes to source and returns the ones that were not selected before.
func (s *Selection) Add(source string, nodes ...Node) []Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []Node

	for i := range nodes {
		key := selectionKey(nodes[i].DistinguishedName)
		if key == "" {
			continue
		}

		if e, ok := s.entries[key]; ok {
			e.sources[source] = struct{}{}

			continue
		}

		s.entries[key] = &entry{node: nodes[i], sources: map[string]struct{}{source: {}}}
		s.order = append(s.order, key)
		added = append(added, nodes[i])
	}

	return added
}

// Release drops the attribution of source from every entry and removes the entries
// nothing else contributed. The removed nodes are returned in selection order.
func (s *Selection) Release(source string) []Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []Node

	kept := s.order[:0]

	for _, key := range s.order {
		e := s.entries[key]
		delete(e.sources, source)

		if len(e.sources) == 0 {
			delete(s.entries, key)
			removed = append(removed, e.node)

			continue
		}

		kept = append(kept, key)
	}

	s.order = kept

	return removed
}

// Remove deletes the given DNs regardless of who contributed them.
func (s *Selection) Remove(dns ...string) []Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(dns))
	for _, dn := range dns {
		drop[selectionKey(dn)] = struct{}{}
	}

	var removed []Node

	kept := s.order[:0]

	for _, key := range s.order {
		if _, ok := drop[key]; ok {
			removed = append(removed, s.entries[key].node)
			delete(s.entries, key)

			continue
		}

		kept = append(kept, key)
	}

	s.order = kept

	return removed
}

// Clear empties the selection and returns how many entries were dropped.
func (s *Selection) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.order)
	s.order = nil
	s.entries = make(map[string]*entry)

	return n
}

// Items returns the selected nodes in the order they were first added.
func (s *Selection) Items() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Node, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.entries[key].node)
	}

	return out
}

// DNs returns the distinguished names of the selected users.
func (s *Selection) DNs() []string {
	items := s.Items()

	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].DistinguishedName
	}

	return out
}

// Contains reports whether dn is selected.
func (s *Selection) Contains(dn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[selectionKey(dn)]

	return ok
}

// Len returns the number of selected users.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.order)
}
