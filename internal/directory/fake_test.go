package directory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var errBackend = errors.New("backend unavailable")

func intPtr(i int) *int { return &i }

func ou(name, dn string) Node {
	return Node{Name: name, DistinguishedName: dn, HasChildren: true, ObjectClasses: []string{"top", "organizationalUnit"}}
}

func user(name, dn string) Node {
	return Node{
		Name:               name,
		DistinguishedName:  dn,
		ObjectClasses:      []string{"top", "person", "organizationalPerson", "user"},
		UserAccountControl: intPtr(512),
	}
}

type fakeSource struct {
	mu       sync.Mutex
	root     []Node
	children map[string][]Node
	search   map[string][]Node
	fail     map[string]bool
	calls    map[string]int
	gate     map[string]chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		children: make(map[string][]Node),
		search:   make(map[string][]Node),
		fail:     make(map[string]bool),
		calls:    make(map[string]int),
		gate:     make(map[string]chan struct{}),
	}
}

func (f *fakeSource) enter(key string) error {
	f.mu.Lock()
	f.calls[key]++
	gate := f.gate[key]
	fail := f.fail[key]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if fail {
		return errBackend
	}

	return nil
}

func (f *fakeSource) Root(_ context.Context) ([]Node, error) {
	if err := f.enter("root"); err != nil {
		return nil, err
	}

	return f.root, nil
}

func (f *fakeSource) Children(_ context.Context, dn string) ([]Node, error) {
	if err := f.enter("children:" + dn); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.children[dn], nil
}

func (f *fakeSource) Search(_ context.Context, query string, _ int) ([]Node, error) {
	if err := f.enter("search:" + query); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.search[strings.ToLower(query)], nil
}

func (f *fakeSource) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[key]
}

const (
	dnDomain = "DC=corp,DC=local"
	dnIT     = "OU=IT,DC=corp,DC=local"
	dnUserA  = "CN=UserA,OU=IT,DC=corp,DC=local"
	dnUserB  = "CN=UserB,OU=IT,DC=corp,DC=local"
	dnSubOU  = "OU=SubOU,OU=IT,DC=corp,DC=local"
	dnUserC  = "CN=UserC,OU=SubOU,OU=IT,DC=corp,DC=local"
	dnHR     = "OU=HR,DC=corp,DC=local"
)

// corpSource is IT holding UserA, UserB and SubOU, where SubOU holds UserC.
func corpSource() *fakeSource {
	f := newFakeSource()
	f.root = []Node{ou("IT", dnIT), ou("HR", dnHR)}
	f.children[dnIT] = []Node{user("UserA", dnUserA), user("UserB", dnUserB), ou("SubOU", dnSubOU)}
	f.children[dnSubOU] = []Node{user("UserC", dnUserC)}
	f.children[dnHR] = []Node{}

	return f
}

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)
