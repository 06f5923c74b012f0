// Package backend holds the location of the AD management API and hands out clients for it.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/GoADConsole/GoADConsole/internal/adapi"
	"github.com/GoADConsole/GoADConsole/internal/config"
	"github.com/GoADConsole/GoADConsole/internal/db/controller/apiserver"
	"github.com/GoADConsole/GoADConsole/internal/db/controller/setting"
)

// Engine is the current backend address. It is safe for concurrent use.
type Engine struct {
	db  *gorm.DB
	cfg config.Backend

	mu       sync.RWMutex
	settings apiserver.Settings
}

// New returns an engine that persists its address in db.
func New(db *gorm.DB, cfg config.Backend) *Engine {
	return &Engine{db: db, cfg: cfg}
}

// Open restores the stored api configuration, falling back to the configured default.
func (e *Engine) Open() error {
	s := apiserver.Settings{}

	err := s.Load(e.db)

	switch {
	case errors.Is(err, setting.ErrSettingNotFound):
		s = apiserver.Settings{BaseURL: strings.TrimRight(e.cfg.DefaultBaseURL, "/")}
		log.Info().Str("base_url", s.BaseURL).Msg("no api configuration stored, using default")
	case err != nil:
		return err
	default:
		log.Info().Str("base_url", s.BaseURL).Msg("api configuration restored")
	}

	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()

	return nil
}

// BaseURL returns the address every endpoint URL is computed from.
func (e *Engine) BaseURL() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.settings.BaseURL
}

// Settings returns the active api configuration.
func (e *Engine) Settings() apiserver.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.settings
}

// Client returns a REST client for the current base URL authenticating with ts.
func (e *Engine) Client(ts oauth2.TokenSource) (*adapi.Client, error) {
	base := e.BaseURL()
	if base == "" {
		return nil, ErrNotOpened
	}

	return adapi.New(base, ts, e.cfg.Timeout)
}

// Test pings the current base URL.
func (e *Engine) Test(ctx context.Context) error {
	base := e.BaseURL()
	if base == "" {
		return ErrNotOpened
	}

	if err := e.ping(ctx, base); err != nil {
		return err
	}

	log.Info().Str("base_url", base).Msg("AD management API connection test successful")

	return nil
}

// Configure probes http://host:port and, when it answers, stores it as the api
// configuration and switches to it. An unreachable candidate returns false and leaves
// the stored record untouched. The error is reserved for invalid input and storage failures.
func (e *Engine) Configure(ctx context.Context, host, port string) (bool, error) {
	base, err := BuildBaseURL(host, port)
	if err != nil {
		return false, err
	}

	if err := e.ping(ctx, base); err != nil {
		log.Warn().Err(err).Str("base_url", base).Msg("AD management API not reachable, keeping current configuration")

		return false, nil
	}

	s := apiserver.Settings{
		Host:    strings.TrimSpace(host),
		Port:    strings.TrimSpace(port),
		BaseURL: base,
	}

	if err := s.Save(e.db); err != nil {
		return false, err
	}

	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()

	log.Info().Str("base_url", base).Msg("api configuration saved")

	return true, nil
}

func (e *Engine) ping(ctx context.Context, base string) error {
	c, err := adapi.New(base, nil, e.cfg.Timeout)
	if err != nil {
		return err
	}

	path := e.cfg.PingPath
	if path == "" {
		path = adapi.HealthPath
	}

	return c.Ping(ctx, path)
}

// BuildBaseURL turns a host and port into a base URL. The host may carry a scheme,
// otherwise http is assumed.
func BuildBaseURL(host, port string) (string, error) {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)

	if host == "" {
		return "", ErrHostEmpty
	}

	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPort, port)
	}

	if !strings.Contains(host, "://") {
		return "http://" + net.JoinHostPort(strings.Trim(host, "[]"), port), nil
	}

	u, err := url.Parse(host)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("invalid api host %q", host)
	}

	u.Host = net.JoinHostPort(u.Hostname(), port)
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}
