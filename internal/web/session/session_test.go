package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/GoADConsole/GoADConsole/internal/auth"
)

func newManager(t *testing.T) *Manager {
	t.Helper()

	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })

	return NewManager(store, time.Hour, false)
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			return c
		}
	}

	return nil
}

func TestCreateReadDestroy(t *testing.T) {
	m := newManager(t)

	app := fiber.New()
	app.Get("/create", func(c *fiber.Ctx) error {
		_, err := m.Create(c, &Data{
			User:  auth.Identity{Subject: "user-1", Username: "jane"},
			Token: &oauth2.Token{AccessToken: "at"},
		})
		if err != nil {
			return err
		}

		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/read", func(c *fiber.Ctx) error {
		data, _, err := m.Read(c)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		return c.SendString(data.User.Username + ":" + data.Token.AccessToken)
	})
	app.Get("/destroy", func(c *fiber.Ctx) error {
		return m.Destroy(c)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/create", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Len(t, cookie.Value, 64)

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(cookie)

	resp, err = app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/destroy", nil)
	req.AddCookie(cookie)

	resp, err = app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	_, err = m.Get(cookie.Value)
	require.ErrorIs(t, err, ErrNoSession)

	req = httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(cookie)

	resp, err = app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetUnknown(t *testing.T) {
	m := newManager(t)

	_, err := m.Get("")
	require.ErrorIs(t, err, ErrNoSession)

	_, err = m.Get("missing")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestWriteUpdatesToken(t *testing.T) {
	m := newManager(t)

	data := &Data{User: auth.Identity{Subject: "user-1"}, Token: &oauth2.Token{AccessToken: "old"}}
	require.NoError(t, m.Write("sid", data))

	data.Token = &oauth2.Token{AccessToken: "new", RefreshToken: "rt"}
	require.NoError(t, m.Write("sid", data))

	got, err := m.Get("sid")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Token.AccessToken)
	assert.Equal(t, "rt", got.Token.RefreshToken)
}

func TestPendingLogin(t *testing.T) {
	m := newManager(t)

	req := &auth.LoginRequest{State: "state-1", Verifier: "verifier", ReturnTo: "/directory"}
	require.NoError(t, m.SavePending(req))

	got, err := m.TakePending("state-1")
	require.NoError(t, err)
	assert.Equal(t, req, got)

	_, err = m.TakePending("state-1")
	require.ErrorIs(t, err, ErrUnknownState, "a state can be used once")

	_, err = m.TakePending("")
	require.ErrorIs(t, err, ErrUnknownState)
}
