package web

import (
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	fiberlog "github.com/GoADConsole/GoADConsole/internal/logger/adapter/fiber"
	"github.com/GoADConsole/GoADConsole/internal/web/handler"
	oidchandler "github.com/GoADConsole/GoADConsole/internal/web/handler/auth/oidc"
	"github.com/GoADConsole/GoADConsole/internal/web/handler/dashboard"
	"github.com/GoADConsole/GoADConsole/internal/web/handler/directory"
	"github.com/GoADConsole/GoADConsole/internal/web/handler/editor"
	"github.com/GoADConsole/GoADConsole/internal/web/handler/login"
	"github.com/GoADConsole/GoADConsole/internal/web/handler/logout"
	"github.com/GoADConsole/GoADConsole/internal/web/handler/settings/api"
	"github.com/GoADConsole/GoADConsole/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers 200 while the service accepts traffic and 503 during shutdown.
	CheckAlivePath = handler.RootPath + "checkalive"

	// MetricsPath exposes the prometheus metrics.
	MetricsPath = handler.RootPath + "metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	deps         *handler.Deps
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// Alive reports whether /checkalive answers 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// WaitShutdown waits for SIGINT or SIGTERM and stops the http server gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown fails /checkalive for the configured time and stops the http server.
func (s *Service) Shutdown() {
	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	s.alive.Store(false)

	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.deps.Cfg.Webserver.ShutDownTime,
		)

		time.Sleep(time.Duration(s.deps.Cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

func newEngine(devMode bool) *html.Engine {
	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if devMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	templateEngine.AddFunc("iterate", func(count int) []int {
		result := make([]int, count)
		for i := range result {
			result[i] = i
		}

		return result
	})
	templateEngine.AddFunc("add", func(a, b int) int {
		return a + b
	})
	templateEngine.AddFunc("sub", func(a, b int) int {
		return a - b
	})
	// ConfigJSON is marshaled by the handlers and embedded in a script block
	templateEngine.AddFunc("rawJSON", func(s string) template.JS {
		return template.JS(s) //nolint:gosec
	})
	templateEngine.AddFunc("label", func(a any) string {
		if l, ok := a.(interface{ Label() string }); ok {
			return l.Label()
		}

		return ""
	})

	return templateEngine
}

// New creates the web service and registers every handler.
func New(deps *handler.Deps) *Service {
	if deps == nil || deps.Cfg == nil {
		panic("deps cannot be nil")
	}

	if deps.DB == nil {
		panic("db cannot be nil")
	}

	cfg := deps.Cfg

	app := fiber.New(
		fiber.Config{
			ReadBufferSize:        8192,
			AppName:               cfg.Title,
			CaseSensitive:         true,
			Prefork:               false,
			Immutable:             true,
			Views:                 newEngine(cfg.DevMode),
			DisableStartupMessage: !cfg.DevMode,
			BodyLimit:             editor.MaxUploadSize + 64<<10,
		},
	)

	service := &Service{
		App:          app,
		deps:         deps,
		fastShutDown: cfg.DevMode || cfg.Webserver.ShutDownTime <= 0,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(auth.New(deps.Sessions))

	// init handlers, each registers its own routes
	services := []handler.Service{
		&login.Handler,
		&oidchandler.Handler,
		&logout.Handler,
		&dashboard.Handler,
		&directory.Handler,
		&editor.Handler,
		&api.Handler,
	}

	for _, h := range services {
		if err := h.Init(app, deps); err != nil {
			log.Fatal().Err(err).Msg("failed to init handler")
		}
	}

	// redirect root to dashboard
	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(handler.DashboardPath)
	})

	return service
}
