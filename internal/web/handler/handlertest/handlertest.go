// Package handlertest wires handlers against in-memory dependencies for tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/GoADConsole/GoADConsole/internal/auth"
	"github.com/GoADConsole/GoADConsole/internal/backend"
	"github.com/GoADConsole/GoADConsole/internal/bulk"
	"github.com/GoADConsole/GoADConsole/internal/config"
	"github.com/GoADConsole/GoADConsole/internal/db/dbtest"
	"github.com/GoADConsole/GoADConsole/internal/directory"
	"github.com/GoADConsole/GoADConsole/internal/importconfig"
	"github.com/GoADConsole/GoADConsole/internal/stats"
	"github.com/GoADConsole/GoADConsole/internal/validation"
	"github.com/GoADConsole/GoADConsole/internal/web/handler"
	guard "github.com/GoADConsole/GoADConsole/internal/web/middleware/auth"
	"github.com/GoADConsole/GoADConsole/internal/web/session"
)

// SessionID is the id of the session created by Login.
const SessionID = "test-session"

// Views is a minimal Fiber Views engine used for tests.
// It writes the "Error" field from the provided fiber.Map (if any)
// so tests can assert error messages rendered by handlers.
type Views struct{}

// Load implements fiber.Views.
func (Views) Load() error { return nil }

// Render implements fiber.Views.
func (Views) Render(w io.Writer, name string, data any, _ ...string) error {
	if m, ok := data.(fiber.Map); ok {
		if v, exists := m["Error"].(string); exists && v != "" {
			_, _ = io.WriteString(w, v)
			return nil
		}
	}
	// write template name to have some content
	_, _ = io.WriteString(w, name)

	return nil
}

// Env is a guarded fiber app with its dependencies.
type Env struct {
	App  *fiber.App
	Deps *handler.Deps

	cookie *http.Cookie
}

// New returns an env whose backend engine points at backendURL.
func New(t *testing.T, backendURL string) *Env {
	t.Helper()

	db := dbtest.Open(t)

	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		Title: "GoADConsole",
		Webserver: config.Webserver{
			URL:     "http://localhost:8080",
			Port:    8080,
			Session: config.Session{ExpiryTime: time.Hour},
		},
		Backend: config.Backend{
			DefaultBaseURL: backendURL,
			Timeout:        5 * time.Second,
			PingPath:       "/api/activedirectory/health",
		},
		Directory: config.Directory{
			SearchMaxResults:     100,
			WorkspaceIdleTimeout: time.Hour,
		},
	}

	engine := backend.New(db, cfg.Backend)
	require.NoError(t, engine.Open())

	metrics, err := bulk.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	deps := &handler.Deps{
		Cfg:        cfg,
		DB:         db,
		Sessions:   session.NewManager(store, time.Hour, false),
		Auth:       auth.NewContext(cfg.Auth.OIDC),
		Backend:    engine,
		Workspaces: directory.NewWorkspaces(time.Hour),
		Executor:   bulk.NewExecutor(metrics),
		Live:       stats.NewLive(20),
		Editor:     importconfig.NewEditor(),
		Validate:   validation.New(),
	}

	app := fiber.New(fiber.Config{Views: Views{}})
	app.Use(guard.New(deps.Sessions))

	return &Env{App: app, Deps: deps}
}

// Login stores a signed in session and attaches it to every following request.
func (e *Env) Login(t *testing.T) {
	t.Helper()

	require.NoError(t, e.Deps.Sessions.Write(SessionID, &session.Data{
		User:      auth.Identity{Subject: "user-1", Username: "jane", Name: "Jane Admin"},
		Token:     &oauth2.Token{AccessToken: "access-token", TokenType: "Bearer"},
		CreatedAt: time.Now(),
	}))

	e.cookie = &http.Cookie{Name: session.CookieName, Value: SessionID}
}

// Do runs req against the app and returns the response with its body read.
func (e *Env) Do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

// JSON decodes body into out.
func JSON(t *testing.T, body string, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), out), body)
}

// JSONRequest builds a request the way the page scripts issue it.
func JSONRequest(method, target string, body any) *http.Request {
	var r io.Reader

	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, r)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	return req
}

// FormRequest builds a form post.
func FormRequest(target, form string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(form))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	return req
}
