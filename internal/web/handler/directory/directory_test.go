package directory

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoADConsole/GoADConsole/internal/adapi"
	"github.com/GoADConsole/GoADConsole/internal/directory"
	"github.com/GoADConsole/GoADConsole/internal/notify"
	"github.com/GoADConsole/GoADConsole/internal/web/handler/handlertest"
)

const childrenPath = "/api/activedirectory/children"

func newEnv(t *testing.T) (*handlertest.Env, *handlertest.Backend) {
	t.Helper()

	b := handlertest.NewBackend(t)
	env := handlertest.New(t, b.URL)
	require.NoError(t, (&Service{}).Init(env.App, env.Deps))
	env.Login(t)

	return env, b
}

type nodesResponse struct {
	Nodes []directory.TreeNode `json:"nodes"`
}

func loadRoot(t *testing.T, env *handlertest.Env) nodesResponse {
	t.Helper()

	var out nodesResponse

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodGet, Path+"/root", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	handlertest.JSON(t, body, &out)

	return out
}

func check(t *testing.T, env *handlertest.Env, dn string, checked bool) CheckResponse {
	t.Helper()

	var out CheckResponse

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodPost, Path+"/check", CheckRequest{DN: dn, Checked: checked}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	handlertest.JSON(t, body, &out)

	return out
}

func TestGet(t *testing.T) {
	env, _ := newEnv(t)

	resp, body := env.Do(t, httptest.NewRequest(http.MethodGet, Path, nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateName, body)
}

func TestRootAndChildren(t *testing.T) {
	env, b := newEnv(t)

	root := loadRoot(t, env)
	require.Len(t, root.Nodes, 2)
	assert.Equal(t, "IT", root.Nodes[0].Title)
	assert.False(t, root.Nodes[0].IsLeaf)
	assert.True(t, root.Nodes[1].IsLeaf)

	var out nodesResponse

	for range 2 {
		resp, body := env.Do(t, handlertest.JSONRequest(http.MethodGet,
			Path+"/children?dn="+url.QueryEscape(handlertest.ITDN), nil))
		require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
		handlertest.JSON(t, body, &out)
	}

	require.Len(t, out.Nodes, 3)
	assert.True(t, out.Nodes[0].IsUser)
	assert.True(t, out.Nodes[1].Disabled)
	assert.Equal(t, 1, b.Calls(childrenPath), "loaded children are cached")
}

func TestChildrenUnknownNode(t *testing.T) {
	env, _ := newEnv(t)

	resp, _ := env.Do(t, handlertest.JSONRequest(http.MethodGet,
		Path+"/children?dn="+url.QueryEscape(handlertest.ITDN), nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.Do(t, handlertest.JSONRequest(http.MethodGet, Path+"/children", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCheckContainer(t *testing.T) {
	env, b := newEnv(t)
	loadRoot(t, env)

	out := check(t, env, handlertest.ITDN, true)
	assert.Len(t, out.Delta.Added, 2)
	assert.Equal(t, 2, out.Selection.Count)
	assert.Equal(t, 1, b.Calls(childrenPath), "unloaded container is fetched")

	out = check(t, env, handlertest.ITDN, true)
	assert.Empty(t, out.Delta.Added)
	assert.Equal(t, 2, out.Selection.Count, "checking twice does not duplicate")

	out = check(t, env, handlertest.ITDN, false)
	assert.Len(t, out.Delta.Removed, 2)
	assert.Equal(t, 0, out.Selection.Count)
	assert.Equal(t, 1, b.Calls(childrenPath))
}

func TestCheckUnknownNode(t *testing.T) {
	env, _ := newEnv(t)

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodPost, Path+"/check",
		CheckRequest{DN: handlertest.ITDN, Checked: true}))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var out struct {
		Notifications []notify.Notification `json:"notifications"`
	}

	handlertest.JSON(t, body, &out)
	require.Len(t, out.Notifications, 1)
	assert.Equal(t, notify.LevelWarning, out.Notifications[0].Level)
}

func TestSearch(t *testing.T) {
	env, _ := newEnv(t)

	var out struct {
		Active  bool             `json:"active"`
		Query   string           `json:"query"`
		Results []directory.Node `json:"results"`
	}

	_, body := env.Do(t, handlertest.JSONRequest(http.MethodGet, Path+"/search?q=UserA", nil))
	handlertest.JSON(t, body, &out)
	assert.True(t, out.Active)
	require.Len(t, out.Results, 1)

	// search results can be checked without a loaded tree
	sel := check(t, env, handlertest.UserADN, true)
	assert.Equal(t, 1, sel.Selection.Count)

	_, body = env.Do(t, handlertest.JSONRequest(http.MethodGet, Path+"/search?q=", nil))
	handlertest.JSON(t, body, &out)
	assert.False(t, out.Active)
	assert.Empty(t, out.Results)

	// leaving search mode keeps the selection
	var view SelectionView

	_, body = env.Do(t, handlertest.JSONRequest(http.MethodGet, Path+"/selection", nil))
	handlertest.JSON(t, body, &view)
	assert.Equal(t, 1, view.Count)
}

func TestSearchNoHits(t *testing.T) {
	env, _ := newEnv(t)

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodGet, Path+"/search?q=nobody", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"active":true,"query":"nobody","results":[]}`, body)
}

func TestSelectAndDeselect(t *testing.T) {
	env, _ := newEnv(t)
	loadRoot(t, env)
	env.Do(t, handlertest.JSONRequest(http.MethodGet, Path+"/children?dn="+url.QueryEscape(handlertest.ITDN), nil))

	var out CheckResponse

	_, body := env.Do(t, handlertest.JSONRequest(http.MethodPost, Path+"/selection",
		SelectRequest{DNs: []string{handlertest.UserADN, handlertest.UserBDN, handlertest.ITDN, "CN=Nobody,DC=corp"}}))
	handlertest.JSON(t, body, &out)
	assert.Len(t, out.Delta.Added, 2, "only loaded users are added")
	assert.Equal(t, 2, out.Selection.Count)

	_, body = env.Do(t, handlertest.JSONRequest(http.MethodDelete,
		Path+"/selection?dn="+url.QueryEscape(handlertest.UserADN), nil))
	handlertest.JSON(t, body, &out)
	require.Len(t, out.Delta.Removed, 1)
	assert.Equal(t, handlertest.UserADN, out.Delta.Removed[0].DistinguishedName)
	assert.Equal(t, 1, out.Selection.Count)

	_, body = env.Do(t, handlertest.JSONRequest(http.MethodDelete, Path+"/selection", nil))
	handlertest.JSON(t, body, &out)
	assert.Len(t, out.Delta.Removed, 1)
	assert.Equal(t, 0, out.Selection.Count)
}

func TestUser(t *testing.T) {
	env, _ := newEnv(t)

	var u adapi.UserDetails

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodGet,
		Path+"/user?dn="+url.QueryEscape(handlertest.UserADN), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	handlertest.JSON(t, body, &u)
	assert.Equal(t, "usera", u.SamAccountName)

	resp, _ = env.Do(t, handlertest.JSONRequest(http.MethodGet, Path+"/user?dn=not-a-dn", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBulkEmptySelection(t *testing.T) {
	env, b := newEnv(t)

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodPost, Path+"/bulk",
		map[string]any{"action": "resetPassword", "newPassword": "Sup3rSecret!"}))
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var out BulkResponse

	handlertest.JSON(t, body, &out)
	require.Len(t, out.Notifications, 1)
	assert.Equal(t, notify.LevelWarning, out.Notifications[0].Level)
	assert.Zero(t, b.Calls("/api/activedirectory/bulkAction"), "no request without users")
}

func TestBulkPartialFailure(t *testing.T) {
	env, b := newEnv(t)
	loadRoot(t, env)
	check(t, env, handlertest.ITDN, true)

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodPost, Path+"/bulk",
		map[string]any{"action": "disableAccounts"}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)

	var out BulkResponse

	handlertest.JSON(t, body, &out)
	require.NotNil(t, out.Response)
	assert.Equal(t, 1, out.Response.SuccessCount)
	assert.Equal(t, 1, out.Response.FailureCount)

	require.Len(t, out.Notifications, 2)
	assert.Equal(t, notify.LevelSuccess, out.Notifications[0].Level)
	assert.Equal(t, "1 of 2 users processed successfully.", out.Notifications[0].Message)
	assert.Equal(t, notify.LevelWarning, out.Notifications[1].Level)
	assert.Equal(t, "1 users failed.", out.Notifications[1].Message)

	assert.Equal(t, 2, out.Selection.Count, "selection is kept after a run")
	require.NotNil(t, b.LastBulk())
	assert.ElementsMatch(t, []string{handlertest.UserADN, handlertest.UserBDN}, b.LastBulk().Users)
}

func TestBulkUnauthorized(t *testing.T) {
	env, b := newEnv(t)
	loadRoot(t, env)
	check(t, env, handlertest.ITDN, true)

	b.FailWith(http.StatusForbidden)

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodPost, Path+"/bulk",
		map[string]any{"action": "unlockAccounts"}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"redirect":"/"}`, body)
	assert.Zero(t, env.Deps.Workspaces.Len(), "workspace is dropped with the session")
}

func TestBulkTransportFailure(t *testing.T) {
	env, b := newEnv(t)
	loadRoot(t, env)
	check(t, env, handlertest.ITDN, true)

	b.FailWith(http.StatusInternalServerError)

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodPost, Path+"/bulk",
		map[string]any{"action": "enableAccounts"}))
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	var out BulkResponse

	handlertest.JSON(t, body, &out)
	require.Len(t, out.Notifications, 1)
	assert.Equal(t, notify.LevelError, out.Notifications[0].Level)
	assert.Equal(t, 1, b.Calls("/api/activedirectory/bulkAction"), "no retry")
}

func TestBackendNotConfigured(t *testing.T) {
	env := handlertest.New(t, "")
	require.NoError(t, (&Service{}).Init(env.App, env.Deps))
	env.Login(t)

	resp, body := env.Do(t, handlertest.JSONRequest(http.MethodGet, Path+"/root", nil))
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	var out struct {
		Notifications []notify.Notification `json:"notifications"`
	}

	handlertest.JSON(t, body, &out)
	require.Len(t, out.Notifications, 1)
	assert.Equal(t, notify.LevelWarning, out.Notifications[0].Level)
}
