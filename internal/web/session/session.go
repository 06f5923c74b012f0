// Package session keeps the signed in user and the tokens in fiber storage.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"

	"github.com/GoADConsole/GoADConsole/internal/auth"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "session"

	// PendingLoginExpiry limits the time between login redirect and callback.
	PendingLoginExpiry = 5 * time.Minute

	pendingPrefix = "pending_login:"
)

var (
	// ErrNoSession is returned when the request carries no valid session.
	ErrNoSession = errors.New("no session")

	// ErrUnknownState is returned when a callback state has no pending login.
	ErrUnknownState = errors.New("unknown or expired login state")
)

// Data represents the session data structure.
type Data struct {
	User      auth.Identity `json:"user"`
	Token     *oauth2.Token `json:"token,omitempty"`
	IDToken   string        `json:"idToken,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Manager reads and writes sessions.
type Manager struct {
	storage fiber.Storage
	expiry  time.Duration
	secure  bool
}

// NewManager returns a session manager writing to storage.
func NewManager(storage fiber.Storage, expiry time.Duration, secure bool) *Manager {
	if storage == nil {
		panic("storage is nil")
	}

	return &Manager{storage: storage, expiry: expiry, secure: secure}
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// Create stores data under a new session id and sets the cookie.
func (m *Manager) Create(c *fiber.Ctx, data *Data) (string, error) {
	id, err := GenerateSessionID()
	if err != nil {
		return "", err
	}

	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	if err = m.Write(id, data); err != nil {
		return "", err
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(m.expiry),
		Secure:   m.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return id, nil
}

// Write writes the session data for the given session ID.
func (m *Manager) Write(id string, data *Data) error {
	out, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return m.storage.Set(id, out, m.expiry)
}

// Get reads the session data for the given session ID.
func (m *Manager) Get(id string) (*Data, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	raw, err := m.storage.Get(id)
	if err != nil {
		return nil, err
	}

	// storages return nil without error for missing keys
	if len(raw) == 0 {
		return nil, ErrNoSession
	}

	data := new(Data)
	if err = json.Unmarshal(raw, data); err != nil {
		return nil, err
	}

	return data, nil
}

// Read returns the session of the request together with its id.
func (m *Manager) Read(c *fiber.Ctx) (*Data, string, error) {
	id := c.Cookies(CookieName)

	data, err := m.Get(id)
	if err != nil {
		return nil, "", err
	}

	return data, id, nil
}

// Destroy deletes the session of the request and expires the cookie.
func (m *Manager) Destroy(c *fiber.Ctx) error {
	id := c.Cookies(CookieName)

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		Secure:   m.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if id == "" {
		return nil
	}

	return m.storage.Delete(id)
}

// SavePending keeps a login request until the provider calls back.
func (m *Manager) SavePending(req *auth.LoginRequest) error {
	out, err := json.Marshal(req)
	if err != nil {
		return err
	}

	return m.storage.Set(pendingPrefix+req.State, out, PendingLoginExpiry)
}

// TakePending returns and removes the login request for state.
func (m *Manager) TakePending(state string) (*auth.LoginRequest, error) {
	if state == "" {
		return nil, ErrUnknownState
	}

	key := pendingPrefix + state

	raw, err := m.storage.Get(key)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, ErrUnknownState
	}

	if err = m.storage.Delete(key); err != nil {
		return nil, err
	}

	req := new(auth.LoginRequest)
	if err = json.Unmarshal(raw, req); err != nil {
		return nil, err
	}

	return req, nil
}
