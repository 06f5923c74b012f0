// Package dashboard provides the dashboard handler showing directory statistics.
package dashboard

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoADConsole/GoADConsole/internal/notify"
	"github.com/GoADConsole/GoADConsole/internal/realtime"
	"github.com/GoADConsole/GoADConsole/internal/stats"
	"github.com/GoADConsole/GoADConsole/internal/web/handler"
	"github.com/GoADConsole/GoADConsole/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.DashboardPath

	// LivePath returns the pushed statistics as JSON.
	LivePath = Path + "/live"

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"

	defaultTimeout = 30 * time.Second
)

// Live is the JSON document polled by the dashboard page.
type Live struct {
	Snapshot      *stats.Snapshot       `json:"snapshot"`
	Hubs          []realtime.HubStatus  `json:"hubs"`
	Notifications []notify.Notification `json:"notifications"`
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Get("/live", s.Live)
	})

	return nil
}

func (s *Service) hubs() []realtime.HubStatus {
	if s.deps.Realtime == nil {
		return []realtime.HubStatus{}
	}

	return s.deps.Realtime.Status()
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.New("Dashboard", navigation.SectionDashboard, "dashboard")

	var (
		alerts []notify.Notification
		dash   *stats.Dashboard
	)

	client, err := s.deps.Client(c)
	if err == nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), defaultTimeout)
		defer cancel()

		dash, err = stats.Load(ctx, client, s.deps.Live)
	}

	if err != nil {
		n, ok := handler.Failure("Dashboard", err)
		if !ok {
			return s.deps.Unauthorized(c)
		}

		log.Error().Err(err).Msg("failed to load dashboard statistics")

		alerts = append(alerts, n)

		// fall back to what the hubs pushed
		dash = &stats.Dashboard{}
		if snap, live := s.deps.Live.Latest(); live {
			dash.Snapshot = snap
		}
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation":    nav,
		"User":          c.Locals(handler.LocalUser),
		"Dashboard":     dash,
		"Hubs":          s.hubs(),
		"Notifications": s.deps.Live.Notifications(),
		"Alerts":        alerts,
	}, handler.BaseLayout)
}

// Live returns the latest pushed snapshot, hub states and notifications.
func (s *Service) Live(c *fiber.Ctx) error {
	out := Live{
		Hubs:          s.hubs(),
		Notifications: s.deps.Live.Notifications(),
	}

	if snap, ok := s.deps.Live.Latest(); ok {
		out.Snapshot = &snap
	}

	return c.JSON(out)
}
