package auth

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/GoADConsole/GoADConsole/internal/config"
)

// State is the authentication state shown to a page.
type State struct {
	IsAuthenticated bool
	User            *Identity
	IsLoading       bool
	Error           string
}

// LoginRequest is the data kept server side between the login redirect and the callback.
type LoginRequest struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
	ReturnTo string `json:"returnTo,omitempty"`
}

// NewLoginRequest creates a fresh state token and PKCE verifier.
func NewLoginRequest() (*LoginRequest, error) {
	state, err := GenerateStateToken()
	if err != nil {
		return nil, err
	}

	return &LoginRequest{
		State:    state,
		Verifier: oauth2.GenerateVerifier(),
	}, nil
}

// Context owns the single provider instance of the process.
type Context struct {
	cfg      config.OIDC
	discover func(context.Context, config.OIDC) (*Provider, error)

	// initMu serializes discovery, provider is written under both locks
	initMu sync.Mutex

	mu       sync.RWMutex
	provider *Provider
	loading  bool
	err      error
}

// NewContext returns a context that discovers the provider on first use.
func NewContext(cfg config.OIDC) *Context {
	return &Context{
		cfg:      cfg,
		discover: NewProvider,
	}
}

// Enabled reports whether a provider is configured at all.
func (c *Context) Enabled() bool {
	return c.cfg.ProviderURL != "" && c.cfg.ClientID != ""
}

// Provider returns the provider, running discovery if it has not succeeded yet.
func (c *Context) Provider(ctx context.Context) (*Provider, error) {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.provider != nil {
		return c.provider, nil
	}

	if !c.Enabled() {
		c.setStatus(false, ErrNotConfigured)
		return nil, ErrNotConfigured
	}

	c.setStatus(true, nil)

	p, err := c.discover(ctx, c.cfg)
	if err != nil {
		log.Error().Err(err).Str("provider", c.cfg.ProviderURL).Msg("oidc discovery failed")
		c.setStatus(false, err)

		return nil, err
	}

	c.mu.Lock()
	c.provider = p
	c.loading = false
	c.err = nil
	c.mu.Unlock()

	log.Info().Str("provider", c.cfg.ProviderURL).Msg("oidc provider initialized")

	return p, nil
}

// Ready returns the provider if discovery already succeeded.
func (c *Context) Ready() *Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.provider
}

// State combines the session user with the provider status.
func (c *Context) State(user *Identity) State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := State{
		IsAuthenticated: user != nil && user.Subject != "",
		IsLoading:       c.loading,
	}

	if s.IsAuthenticated {
		s.User = user
	}

	if c.err != nil {
		s.Error = c.err.Error()
	}

	return s
}

func (c *Context) setStatus(loading bool, err error) {
	c.mu.Lock()
	c.loading = loading
	c.err = err
	c.mu.Unlock()
}

// Refresh implements Refresher, discovering the provider first if needed.
func (c *Context) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	p, err := c.Provider(ctx)
	if err != nil {
		return nil, err
	}

	return p.Refresh(ctx, tok)
}
