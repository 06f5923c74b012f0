package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Event names pushed by the backend hubs.
const (
	EventStatsUpdate  = "ReceiveStatsUpdate"
	EventNotification = "ReceiveNotification"
)

// HubStatus is the connection state of one hub.
type HubStatus struct {
	Hub   string `json:"hub"`
	State string `json:"state"`
}

// Registry keeps one Connection per hub name. Hub URLs are computed from baseURL on
// every connection attempt, so a changed backend address is picked up on reconnect.
type Registry struct {
	baseURL func() string
	tokens  TokenProvider
	policy  Policy

	mu    sync.Mutex
	conns map[string]*Connection
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry(baseURL func() string, tokens TokenProvider, policy Policy) *Registry {
	return &Registry{
		baseURL: baseURL,
		tokens:  tokens,
		policy:  policy,
		conns:   make(map[string]*Connection),
	}
}

// HubURL is the endpoint of hub below base.
func HubURL(base, hub string) string {
	return strings.TrimRight(base, "/") + "/hubs/" + hub
}

// Hub returns the connection for name, creating it on first use.
func (r *Registry) Hub(name string) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[name]; ok {
		return c
	}

	c := NewConnection(name, func() string { return HubURL(r.baseURL(), name) }, r.tokens, r.policy)
	r.conns[name] = c
	r.order = append(r.order, name)

	return c
}

// On registers h for event on hub.
func (r *Registry) On(hub, event string, h Handler) {
	r.Hub(hub).On(event, h)
}

// OnJSON registers a handler decoding the first argument of event into a new T.
func OnJSON[T any](r *Registry, hub, event string, h func(T)) {
	r.On(hub, event, func(args []json.RawMessage) {
		var v T
		if err := Decode(args, 0, &v); err != nil {
			log.Warn().Err(err).Str("hub", hub).Str("event", event).Msg("malformed hub event")

			return
		}

		h(v)
	})
}

func (r *Registry) connections() []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Connection, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.conns[name])
	}

	return out
}

// Start starts every known hub connection in the background.
func (r *Registry) Start(ctx context.Context) {
	for _, c := range r.connections() {
		c.Start(ctx)
	}
}

// Stop stops every hub connection and waits for them.
func (r *Registry) Stop() {
	var wg sync.WaitGroup

	for _, c := range r.connections() {
		wg.Add(1)

		go func() {
			defer wg.Done()
			c.Stop()
		}()
	}

	wg.Wait()
}

// Status reports the state of every hub in registration order.
func (r *Registry) Status() []HubStatus {
	conns := r.connections()

	out := make([]HubStatus, 0, len(conns))
	for _, c := range conns {
		out = append(out, HubStatus{Hub: c.Hub(), State: c.State().String()})
	}

	return out
}
