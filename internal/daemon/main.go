// Package daemon wires the console services together and runs them.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/GoADConsole/GoADConsole/internal/auth"
	"github.com/GoADConsole/GoADConsole/internal/backend"
	"github.com/GoADConsole/GoADConsole/internal/bulk"
	"github.com/GoADConsole/GoADConsole/internal/config"
	"github.com/GoADConsole/GoADConsole/internal/db"
	"github.com/GoADConsole/GoADConsole/internal/db/dsn"
	"github.com/GoADConsole/GoADConsole/internal/directory"
	"github.com/GoADConsole/GoADConsole/internal/importconfig"
	"github.com/GoADConsole/GoADConsole/internal/realtime"
	"github.com/GoADConsole/GoADConsole/internal/stats"
	"github.com/GoADConsole/GoADConsole/internal/validation"
	"github.com/GoADConsole/GoADConsole/internal/web"
	"github.com/GoADConsole/GoADConsole/internal/web/handler"
	"github.com/GoADConsole/GoADConsole/internal/web/session"
)

const (
	// SessionTable holds the sessions for the sql storages.
	SessionTable = "sessions"

	sweepInterval = time.Minute
	feedSize      = 50
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
	storage    fiber.Storage
	workspaces *directory.Workspaces
	registry   *realtime.Registry
	live       *stats.Live
}

// Start runs the web service, the workspace sweeper and the hub connections until
// SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go d.workspaces.Run(ctx, sweepInterval)

	if d.registry != nil {
		d.registry.Start(ctx)
	}

	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)
	log.Info().Str("addr", addr).Msg("starting web service")

	go func() {
		_ = d.webService.Start(addr)
	}()

	d.webService.WaitShutdown()

	if d.registry != nil {
		d.registry.Stop()
	}

	if err := d.storage.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close session storage")
	}

	return nil
}

// SessionStorage returns the fiber storage for the configured database engine.
// sqlite keeps sessions in memory.
func SessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.URI(cfg),
			Table:         SessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.URI(cfg),
			Table:         SessionTable,
		})
	default:
		return memory.New()
	}
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrNilConfig
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}

	engine := backend.New(gdb, cfg.Backend)
	if err = engine.Open(); err != nil {
		return nil, fmt.Errorf("failed to restore api configuration: %w", err)
	}

	metrics, err := bulk.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}

	storage := SessionStorage(cfg)

	d := &Daemon{
		cfg:        cfg,
		storage:    storage,
		workspaces: directory.NewWorkspaces(cfg.Directory.WorkspaceIdleTimeout),
		live:       stats.NewLive(feedSize),
	}

	if cfg.Realtime.Enabled {
		d.registry = realtime.NewRegistry(engine.BaseURL, HubTokens(cfg.Realtime.ClientCredentials), realtime.Policy{
			MaxAttempts:  cfg.Realtime.MaxAttempts,
			InitialDelay: cfg.Realtime.InitialDelay,
			MaxDelay:     cfg.Realtime.MaxDelay,
		})
		d.live.Subscribe(d.registry, cfg.Realtime.Hubs...)
	}

	deps := &handler.Deps{
		Cfg:        cfg,
		DB:         gdb,
		Sessions:   session.NewManager(storage, cfg.Webserver.Session.ExpiryTime, cfg.Webserver.CookieSecure),
		Auth:       auth.NewContext(cfg.Auth.OIDC),
		Backend:    engine,
		Workspaces: d.workspaces,
		Executor:   bulk.NewExecutor(metrics),
		Live:       d.live,
		Realtime:   d.registry,
		Editor:     importconfig.NewEditor(),
		Validate:   validation.New(),
	}

	d.webService = web.New(deps)

	return d, nil
}
