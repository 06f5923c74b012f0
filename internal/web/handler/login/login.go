package login

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GoADConsole/GoADConsole/internal/web/handler"
)

const (
	// Path is the path to the login page.
	Path = handler.LoginPath

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	state := s.deps.Auth.State(nil)

	msg := Message(c.Query("error"))
	if msg == "" && !s.deps.Auth.Enabled() {
		msg = "No identity provider is configured."
	}

	return c.Render(TemplateName, fiber.Map{
		"Title":       s.deps.Cfg.Title,
		"OIDCEnabled": s.deps.Auth.Enabled(),
		"Auth":        state,
		"ReturnTo":    c.Query("returnTo"),
		"Error":       msg,
	})
}
