// Package logout ends the console session.
package logout

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoADConsole/GoADConsole/internal/web/handler"
	"github.com/GoADConsole/GoADConsole/internal/web/handler/login"
)

// Path is the logout path.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	// logout route (outside auth middleware protection)
	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout clears the session and the directory workspace, then signs out at the provider
// when it supports an end session endpoint.
func (s *Service) Logout(c *fiber.Ctx) error {
	data, id, err := s.deps.Sessions.Read(c)
	if err == nil {
		s.deps.Workspaces.Drop(id)
	}

	if err = s.deps.Sessions.Destroy(c); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
	}

	if data == nil {
		return c.Redirect(login.Path)
	}

	log.Info().Str("user", data.User.Username).Msg("user signed out")

	if p := s.deps.Auth.Ready(); p != nil {
		postLogout := strings.TrimRight(s.deps.Cfg.Webserver.URL, "/") + login.Path
		if u := p.LogoutURL(data.IDToken, postLogout); u != "" {
			return c.Redirect(u)
		}
	}

	return c.Redirect(login.Path)
}
