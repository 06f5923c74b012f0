package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// how often a ping message is sent to the hub
	keepAliveInterval = 15 * time.Second

	// read deadline, reset by every message from the hub
	serverTimeout = 30 * time.Second

	writeWait    = 10 * time.Second
	maxRedirects = 5
)

// State of a hub connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// TokenProvider returns a bearer token for one connection attempt. An empty token sends no header.
type TokenProvider func(ctx context.Context) (string, error)

// Handler receives the arguments of a hub invocation.
type Handler func(args []json.RawMessage)

// errReconnect is a close message that allows reconnecting.
var errReconnect = errors.New("hub asked the client to reconnect")

// Connection is the client side of one hub.
type Connection struct {
	hub    string
	url    func() string
	tokens TokenProvider
	policy Policy
	client *http.Client
	dialer *websocket.Dialer

	keepAlive     time.Duration
	serverTimeout time.Duration

	handlersMu sync.RWMutex
	handlers   map[string][]Handler

	state atomic.Int32

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}

	writeMu sync.Mutex
}

// NewConnection returns a stopped connection to the hub found at url().
func NewConnection(hub string, url func() string, tokens TokenProvider, policy Policy) *Connection {
	return &Connection{
		hub:           hub,
		url:           url,
		tokens:        tokens,
		policy:        policy.withDefaults(),
		client:        &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone(), Timeout: writeWait},
		dialer:        &websocket.Dialer{HandshakeTimeout: writeWait, Proxy: http.ProxyFromEnvironment},
		keepAlive:     keepAliveInterval,
		serverTimeout: serverTimeout,
		handlers:      make(map[string][]Handler),
	}
}

// Hub returns the hub name.
func (c *Connection) Hub() string {
	return c.hub
}

// State returns the current connection state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

func (c *Connection) setState(s State) {
	c.state.Store(int32(s))
}

// On registers h for event. Handlers run in registration order. Event names are case-insensitive.
func (c *Connection) On(event string, h Handler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	key := strings.ToLower(event)
	c.handlers[key] = append(c.handlers[key], h)
}

// Start connects in the background and keeps the connection alive until Stop or ctx is done.
// Starting a running connection is a no-op. A connection that gave up can be started again.
func (c *Connection) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(runCtx, c.done)
}

// Stop closes the connection and waits for its goroutines to finish.
func (c *Connection) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	c.client.CloseIdleConnections()
}

// Send invokes target on the hub without waiting for a completion.
func (c *Connection) Send(target string, args ...any) error {
	c.mu.Lock()
	ws := c.conn
	c.mu.Unlock()

	if ws == nil {
		return ErrNotConnected
	}

	raw := make([]json.RawMessage, 0, len(args))

	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode argument for %s: %w", target, err)
		}

		raw = append(raw, b)
	}

	return c.write(ws, message{
		Type:         typeInvocation,
		Target:       target,
		InvocationID: uuid.NewString(),
		Arguments:    raw,
	})
}

func (c *Connection) run(ctx context.Context, done chan struct{}) {
	defer c.finish(done)
	defer c.setState(StateDisconnected)

	c.setState(StateConnecting)

	for {
		ws, err := c.connectWithRetry(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Str("hub", c.hub).Msg("hub connection failed, giving up")
			}

			return
		}

		log.Info().Str("hub", c.hub).Msg("hub connected")

		err = c.serve(ctx, ws)

		if ctx.Err() != nil {
			return
		}

		if errors.Is(err, ErrClosedByServer) {
			log.Warn().Err(err).Str("hub", c.hub).Msg("hub connection closed")

			return
		}

		log.Warn().Err(err).Str("hub", c.hub).Msg("hub connection lost, reconnecting")
		c.setState(StateReconnecting)
	}
}

// finish releases a run that ended on its own so that Start can connect again.
func (c *Connection) finish(done chan struct{}) {
	c.mu.Lock()
	if c.done == done {
		c.cancel()
		c.cancel, c.done = nil, nil
	}
	c.mu.Unlock()

	close(done)
}

func (c *Connection) connectWithRetry(ctx context.Context) (*websocket.Conn, error) {
	attempt := 0

	op := func() (*websocket.Conn, error) {
		attempt++

		ws, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}

			if errors.Is(err, ErrHandshake) {
				return nil, backoff.Permanent(err)
			}

			return nil, err
		}

		return ws, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.policy.newBackOff()),
		backoff.WithMaxTries(uint(c.policy.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Str("hub", c.hub).Int("attempt", attempt).Dur("retry_in", next).Msg("hub connection attempt failed")
		}),
	)
}

// connect runs one full connection attempt: token, negotiate, dial and handshake.
func (c *Connection) connect(ctx context.Context) (*websocket.Conn, error) {
	token := ""

	if c.tokens != nil {
		t, err := c.tokens(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire hub token: %w", err)
		}

		token = t
	}

	neg, hubURL, token, err := c.negotiate(ctx, c.url(), token)
	if err != nil {
		return nil, err
	}

	wsURL, err := webSocketURL(hubURL, neg.id())
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, resp, err := c.dialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.hub, err)
	}

	// unblocks the handshake read when the connection is stopped
	stopClose := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stopClose()

	if err := c.handshake(ws); err != nil {
		_ = ws.Close()

		return nil, err
	}

	c.mu.Lock()
	c.conn = ws
	c.mu.Unlock()

	return ws, nil
}

func (c *Connection) negotiate(ctx context.Context, hubURL, token string) (*negotiateResponse, string, string, error) {
	for range maxRedirects {
		u, err := url.Parse(hubURL)
		if err != nil {
			return nil, "", "", fmt.Errorf("parse hub url: %w", err)
		}

		u.Path = strings.TrimRight(u.Path, "/") + "/negotiate"
		q := u.Query()
		q.Set("negotiateVersion", "1")
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), http.NoBody)
		if err != nil {
			return nil, "", "", err
		}

		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, "", "", fmt.Errorf("negotiate %s: %w", c.hub, err)
		}

		neg := &negotiateResponse{}
		err = decodeNegotiate(resp, neg)

		if err != nil {
			return nil, "", "", fmt.Errorf("negotiate %s: %w", c.hub, err)
		}

		if neg.URL != "" {
			hubURL = neg.URL
			if neg.AccessToken != "" {
				token = neg.AccessToken
			}

			continue
		}

		if !neg.supportsWebSockets() {
			return nil, "", "", fmt.Errorf("negotiate %s: websockets not offered", c.hub)
		}

		return neg, hubURL, token, nil
	}

	return nil, "", "", ErrTooManyRedirects
}

func decodeNegotiate(resp *http.Response, out *negotiateResponse) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)

		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}

	if out.Error != "" {
		return errors.New(out.Error)
	}

	return nil
}

func webSocketURL(hubURL, id string) (string, error) {
	u, err := url.Parse(hubURL)
	if err != nil {
		return "", fmt.Errorf("parse hub url: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}

	if id != "" {
		q := u.Query()
		q.Set("id", id)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

func (c *Connection) handshake(ws *websocket.Conn) error {
	if err := c.write(ws, handshakeRequest{Protocol: "json", Version: 1}); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(c.serverTimeout))

	_, frame, err := ws.ReadMessage()
	if err != nil {
		return fmt.Errorf("read handshake: %w", err)
	}

	records := splitRecords(frame)
	if len(records) == 0 {
		return fmt.Errorf("%w: empty response", ErrHandshake)
	}

	var hs handshakeResponse
	if err := json.Unmarshal(records[0], &hs); err != nil {
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	if hs.Error != "" {
		return fmt.Errorf("%w: %s", ErrHandshake, hs.Error)
	}

	// messages sent right behind the handshake response
	for _, rec := range records[1:] {
		if err := c.handle(rec); err != nil {
			return err
		}
	}

	return nil
}

// serve reads from ws until it fails or ctx is done.
func (c *Connection) serve(ctx context.Context, ws *websocket.Conn) error {
	c.setState(StateConnected)

	stop := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		c.keepAliveLoop(ctx, ws, stop)
	}()

	defer func() {
		close(stop)
		wg.Wait()

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		_ = ws.Close()
	}()

	for {
		_ = ws.SetReadDeadline(time.Now().Add(c.serverTimeout))

		_, frame, err := ws.ReadMessage()
		if err != nil {
			return err
		}

		for _, rec := range splitRecords(frame) {
			if err := c.handle(rec); err != nil {
				return err
			}
		}
	}
}

func (c *Connection) keepAliveLoop(ctx context.Context, ws *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = ws.Close()

			return
		case <-ticker.C:
			if err := c.write(ws, message{Type: typePing}); err != nil {
				log.Debug().Err(err).Str("hub", c.hub).Msg("hub ping failed")
			}
		}
	}
}

func (c *Connection) handle(record []byte) error {
	var m message
	if err := json.Unmarshal(record, &m); err != nil {
		log.Debug().Err(err).Str("hub", c.hub).Msg("ignoring malformed hub message")

		return nil
	}

	switch m.Type {
	case typeInvocation:
		c.dispatch(m.Target, m.Arguments)
	case typePing:
	case typeClose:
		if m.AllowReconnect {
			return errReconnect
		}

		if m.Error != "" {
			return fmt.Errorf("%w: %s", ErrClosedByServer, m.Error)
		}

		return ErrClosedByServer
	case typeCompletion:
		log.Debug().Str("hub", c.hub).Str("invocation", m.InvocationID).Str("error", m.Error).Msg("hub invocation completed")
	default:
		log.Debug().Str("hub", c.hub).Int("type", m.Type).Msg("ignoring hub message")
	}

	return nil
}

func (c *Connection) dispatch(target string, args []json.RawMessage) {
	c.handlersMu.RLock()
	handlers := append([]Handler(nil), c.handlers[strings.ToLower(target)]...)
	c.handlersMu.RUnlock()

	if len(handlers) == 0 {
		log.Debug().Str("hub", c.hub).Str("event", target).Msg("no handler for hub event")

		return
	}

	for _, h := range handlers {
		c.call(target, h, args)
	}
}

func (c *Connection) call(target string, h Handler, args []json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("hub", c.hub).Str("event", target).Interface("panic", r).Msg("hub handler panicked")
		}
	}()

	h(args)
}

func (c *Connection) write(ws *websocket.Conn, v any) error {
	rec, err := encodeRecord(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))

	return ws.WriteMessage(websocket.TextMessage, rec)
}
