package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoADConsole/GoADConsole/internal/stats"
	"github.com/GoADConsole/GoADConsole/internal/web/handler/handlertest"
	"github.com/GoADConsole/GoADConsole/internal/web/session"
)

func newEnv(t *testing.T) (*handlertest.Env, *handlertest.Backend) {
	t.Helper()

	b := handlertest.NewBackend(t)
	env := handlertest.New(t, b.URL)
	require.NoError(t, (&Service{}).Init(env.App, env.Deps))
	env.Login(t)

	return env, b
}

func TestGet(t *testing.T) {
	env, b := newEnv(t)

	resp, body := env.Do(t, httptest.NewRequest(http.MethodGet, Path, nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateName, body)
	assert.Equal(t, 1, b.Calls("/api/System/dashboard-stats"))
	assert.Equal(t, 1, b.Calls("/api/System/info"))
}

func TestGetBackendDown(t *testing.T) {
	env, b := newEnv(t)
	b.FailWith(http.StatusBadGateway)

	resp, body := env.Do(t, httptest.NewRequest(http.MethodGet, Path, nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "transport failures are not fatal")
	assert.Equal(t, TemplateName, body)
}

func TestGetUnauthorizedClearsSession(t *testing.T) {
	env, b := newEnv(t)
	b.FailWith(http.StatusUnauthorized)

	resp, _ := env.Do(t, httptest.NewRequest(http.MethodGet, Path, nil))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))

	_, err := env.Deps.Sessions.Get(handlertest.SessionID)
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestLive(t *testing.T) {
	env, _ := newEnv(t)

	var out Live

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodGet, LivePath, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	handlertest.JSON(t, body, &out)
	assert.Nil(t, out.Snapshot)

	env.Deps.Live.UpdateStats(stats.DashboardStats{TotalUsers: 42})
	env.Deps.Live.Receive(stats.HubNotification{Type: "warning", Title: "Import", Message: "3 rows skipped"})

	_, body = env.Do(t, handlertest.JSONRequest(http.MethodGet, LivePath, nil))
	handlertest.JSON(t, body, &out)
	require.NotNil(t, out.Snapshot)
	assert.Equal(t, 42, out.Snapshot.Stats.TotalUsers)
	assert.True(t, out.Snapshot.Live)
	require.Len(t, out.Notifications, 1)
	assert.Equal(t, "3 rows skipped", out.Notifications[0].Message)
}
