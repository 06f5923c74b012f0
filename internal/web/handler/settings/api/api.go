// Package api provides the page that points the console at the AD management API.
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoADConsole/GoADConsole/internal/backend"
	"github.com/GoADConsole/GoADConsole/internal/db/controller/apiserver"
	"github.com/GoADConsole/GoADConsole/internal/validation"
	"github.com/GoADConsole/GoADConsole/internal/web/handler"
	"github.com/GoADConsole/GoADConsole/internal/web/navigation"
)

const (
	// Path is the path to the api settings page.
	Path = handler.RootPath + "settings/api"

	// TestPath checks the stored configuration without changing it.
	TestPath = Path + "/test"

	// TemplateName is the name of the api settings template.
	TemplateName = "settings/api"

	probeTimeout = 15 * time.Second
)

// Service is the api settings handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the api settings handler.
var Handler = Service{}

// Init initializes the api settings handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
		router.Post("/test", s.Test)
	})

	return nil
}

func (s *Service) render(c *fiber.Ctx, status int, settings apiserver.Settings, extra fiber.Map) error {
	data := fiber.Map{
		"Navigation": navigation.New("API server", navigation.SectionSettings, "api"),
		"User":       c.Locals(handler.LocalUser),
		"Settings":   settings,
		"Active":     s.deps.Backend.BaseURL(),
	}

	for k, v := range extra {
		data[k] = v
	}

	return c.Status(status).Render(TemplateName, data, handler.BaseLayout)
}

// Get renders the form with the active configuration.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, s.deps.Backend.Settings(), nil)
}

// Post probes the submitted host and port and stores them when the API answers.
// An unreachable API leaves the previous configuration in place.
func (s *Service) Post(c *fiber.Ctx) error {
	settings := apiserver.Settings{}
	if err := c.BodyParser(&settings); err != nil {
		log.Error().Err(err).Msg("failed to parse api settings form")

		return s.render(c, fiber.StatusBadRequest, settings, fiber.Map{"Error": "Invalid form data"})
	}

	settings.Host = strings.TrimSpace(settings.Host)
	settings.Port = strings.TrimSpace(settings.Port)

	if err := s.deps.Validate.Struct(&settings); err != nil {
		log.Warn().Err(err).Msg("validation failed for api settings")

		return s.render(c, fiber.StatusBadRequest, settings, fiber.Map{
			"Error": strings.Join(validation.Messages(err), ", "),
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), probeTimeout)
	defer cancel()

	ok, err := s.deps.Backend.Configure(ctx, settings.Host, settings.Port)

	switch {
	case errors.Is(err, backend.ErrHostEmpty), errors.Is(err, backend.ErrInvalidPort):
		return s.render(c, fiber.StatusBadRequest, settings, fiber.Map{"Error": err.Error()})
	case err != nil:
		log.Error().Err(err).Msg("failed to save api settings")

		return s.render(c, fiber.StatusInternalServerError, settings, fiber.Map{"Error": "Failed to save settings"})
	case !ok:
		candidate, _ := backend.BuildBaseURL(settings.Host, settings.Port)

		return s.render(c, fiber.StatusBadGateway, settings, fiber.Map{
			"Error": fmt.Sprintf("The AD management API at %s is not reachable, the previous configuration was kept.", candidate),
		})
	}

	return s.render(c, fiber.StatusOK, s.deps.Backend.Settings(), fiber.Map{
		"Success": "Settings saved, the AD management API is reachable.",
	})
}

// Test pings the active configuration.
func (s *Service) Test(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), probeTimeout)
	defer cancel()

	if err := s.deps.Backend.Test(ctx); err != nil {
		log.Warn().Err(err).Msg("AD management API connection test failed")

		return s.render(c, fiber.StatusBadGateway, s.deps.Backend.Settings(), fiber.Map{
			"Error": fmt.Sprintf("Connection test failed (%s)", err),
		})
	}

	return s.render(c, fiber.StatusOK, s.deps.Backend.Settings(), fiber.Map{
		"Success": "Connection test successful",
	})
}
