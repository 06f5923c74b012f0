package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeHub serves negotiate and the websocket endpoint of the "dashboard" hub.
type fakeHub struct {
	t   *testing.T
	srv *httptest.Server

	upgrader websocket.Upgrader

	mu              sync.Mutex
	conns           []*websocket.Conn
	auths           []string
	negotiations    int
	negotiateStatus int
	handshakeError  string
	afterHandshake  string

	connected chan *websocket.Conn
	received  chan message
}

func newFakeHub(t *testing.T) *fakeHub {
	t.Helper()

	h := &fakeHub{
		t:               t,
		negotiateStatus: http.StatusOK,
		connected:       make(chan *websocket.Conn, 8),
		received:        make(chan message, 16),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/hubs/dashboard/negotiate", h.negotiate)
	mux.HandleFunc("/hubs/dashboard", h.serveWS)

	h.srv = httptest.NewServer(mux)

	t.Cleanup(func() {
		h.mu.Lock()
		for _, c := range h.conns {
			_ = c.Close()
		}
		h.mu.Unlock()

		h.srv.Close()
	})

	return h
}

func (h *fakeHub) negotiate(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.negotiations++
	h.auths = append(h.auths, r.Header.Get("Authorization"))
	status := h.negotiateStatus
	h.mu.Unlock()

	if r.Method != http.MethodPost || r.URL.Query().Get("negotiateVersion") != "1" {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	if status != http.StatusOK {
		w.WriteHeader(status)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(negotiateResponse{
		NegotiateVersion:    1,
		ConnectionID:        "conn-1",
		ConnectionToken:     "token-1",
		AvailableTransports: []transport{{Transport: "WebSockets", TransferFormats: []string{"Text"}}},
	})
}

func (h *fakeHub) serveWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("id") != "token-1" {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.conns = append(h.conns, conn)
	hsErr := h.handshakeError
	after := h.afterHandshake
	h.mu.Unlock()

	_, frame, err := conn.ReadMessage()
	if err != nil {
		return
	}

	var req handshakeRequest
	if recs := splitRecords(frame); len(recs) == 1 {
		_ = json.Unmarshal(recs[0], &req)
	}

	resp := "{}"
	if hsErr != "" || req.Protocol != "json" {
		resp = `{"error":"` + hsErr + `"}`
	}

	_ = conn.WriteMessage(websocket.TextMessage, []byte(resp+string(rune(recordSeparator))+after))

	h.connected <- conn

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}

		for _, rec := range splitRecords(frame) {
			var m message
			if json.Unmarshal(rec, &m) == nil && m.Type != typePing {
				select {
				case h.received <- m:
				default:
				}
			}
		}
	}
}

func (h *fakeHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.negotiations
}

func (h *fakeHub) authorizations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.auths...)
}

func (h *fakeHub) waitConnected(t *testing.T) *websocket.Conn {
	t.Helper()

	select {
	case c := <-h.connected:
		return c
	case <-time.After(waitFor):
		t.Fatal("hub connection not established")

		return nil
	}
}

func push(t *testing.T, conn *websocket.Conn, records ...string) {
	t.Helper()

	frame := strings.Join(records, string(rune(recordSeparator))) + string(rune(recordSeparator))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialDelay: 5 * time.Millisecond, MaxDelay: 20 * time.Millisecond}
}
