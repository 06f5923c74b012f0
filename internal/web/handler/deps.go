package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/GoADConsole/GoADConsole/internal/adapi"
	"github.com/GoADConsole/GoADConsole/internal/auth"
	"github.com/GoADConsole/GoADConsole/internal/backend"
	"github.com/GoADConsole/GoADConsole/internal/bulk"
	"github.com/GoADConsole/GoADConsole/internal/config"
	"github.com/GoADConsole/GoADConsole/internal/directory"
	"github.com/GoADConsole/GoADConsole/internal/importconfig"
	"github.com/GoADConsole/GoADConsole/internal/notify"
	"github.com/GoADConsole/GoADConsole/internal/realtime"
	"github.com/GoADConsole/GoADConsole/internal/stats"
	"github.com/GoADConsole/GoADConsole/internal/web/session"
)

// Deps are the services shared by all handlers.
type Deps struct {
	Cfg        *config.Config
	DB         *gorm.DB
	Sessions   *session.Manager
	Auth       *auth.Context
	Backend    *backend.Engine
	Workspaces *directory.Workspaces
	Executor   *bulk.Executor
	Live       *stats.Live
	Realtime   *realtime.Registry // nil when hub connections are disabled
	Editor     *importconfig.Editor
	Validate   *validator.Validate
}

// SessionFrom returns the session the guard attached to the request.
func SessionFrom(c *fiber.Ctx) (*session.Data, string) {
	data, _ := c.Locals(LocalSession).(*session.Data)
	id, _ := c.Locals(LocalSessionID).(string)

	return data, id
}

// Workspace returns the directory workspace of the request's session.
func (d *Deps) Workspace(c *fiber.Ctx) *directory.Workspace {
	_, id := SessionFrom(c)

	return d.Workspaces.Get(id)
}

// Client returns a backend client authenticating with the session's access token.
// A refreshed token is written back to the session.
func (d *Deps) Client(c *fiber.Ctx) (*adapi.Client, error) {
	data, id := SessionFrom(c)
	if data == nil {
		return nil, auth.ErrLoginRequired
	}

	var refresher auth.Refresher
	if d.Auth != nil {
		refresher = d.Auth
	}

	ts := auth.NewSessionTokenSource(c.UserContext(), refresher, data.Token, func(tok *oauth2.Token) error {
		data.Token = tok

		return d.Sessions.Write(id, data)
	})

	return d.Backend.Client(ts)
}

// IsAuthError reports whether err means the user has to sign in again.
func IsAuthError(err error) bool {
	return errors.Is(err, adapi.ErrUnauthorized) || errors.Is(err, auth.ErrLoginRequired)
}

// WantsJSON reports whether the request was issued by the page scripts.
func WantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) ||
		c.Get(fiber.HeaderXRequestedWith) == "XMLHttpRequest"
}

// Unauthorized clears the session and sends the browser to the application root.
func (d *Deps) Unauthorized(c *fiber.Ctx) error {
	_, id := SessionFrom(c)

	if id != "" && d.Workspaces != nil {
		d.Workspaces.Drop(id)
	}

	if err := d.Sessions.Destroy(c); err != nil {
		log.Warn().Err(err).Msg("failed to destroy session")
	}

	if WantsJSON(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"redirect": RootPath})
	}

	return c.Redirect(RootPath)
}

// Failure maps a backend error to a notification. Errors that need a new login are
// reported through ok=false and must be answered with Unauthorized.
func Failure(title string, err error) (n notify.Notification, ok bool) {
	switch {
	case IsAuthError(err):
		return notify.Notification{}, false
	case errors.Is(err, backend.ErrNotOpened):
		return notify.New(notify.LevelWarning, title, "The AD management API is not configured yet."), true
	default:
		return notify.New(notify.LevelError, title, err.Error()), true
	}
}
