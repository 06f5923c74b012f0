package oidc

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoADConsole/GoADConsole/internal/auth"
	"github.com/GoADConsole/GoADConsole/internal/web/handler"
	"github.com/GoADConsole/GoADConsole/internal/web/handler/login"
	"github.com/GoADConsole/GoADConsole/internal/web/session"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the OIDC handler.
var Handler = Service{}

// Init initializes the OIDC handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)

	return nil
}

func loginError(c *fiber.Ctx, code string) error {
	return c.Redirect(login.Path + "?error=" + code)
}

// Login redirects to the provider's authorization endpoint.
func (s *Service) Login(c *fiber.Ctx) error {
	p, err := s.deps.Auth.Provider(c.UserContext())
	if err != nil {
		return loginError(c, login.CodeProvider)
	}

	req, err := auth.NewLoginRequest()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate login request")
		return loginError(c, login.CodeSession)
	}

	req.ReturnTo = SafeReturnTo(c.Query("returnTo"))

	if err = s.deps.Sessions.SavePending(req); err != nil {
		log.Error().Err(err).Msg("failed to store login request")
		return loginError(c, login.CodeSession)
	}

	return c.Redirect(p.AuthURL(req.State, req.Verifier))
}

// Callback completes the login and creates the session.
func (s *Service) Callback(c *fiber.Ctx) error {
	if e := c.Query("error"); e != "" {
		log.Warn().Str("error", e).Str("description", c.Query("error_description")).Msg("oidc login denied")
		return loginError(c, login.CodeDenied)
	}

	req, err := s.deps.Sessions.TakePending(c.Query("state"))
	if err != nil {
		if !errors.Is(err, session.ErrUnknownState) {
			log.Error().Err(err).Msg("failed to read login request")
		}

		return loginError(c, login.CodeState)
	}

	p, err := s.deps.Auth.Provider(c.UserContext())
	if err != nil {
		return loginError(c, login.CodeProvider)
	}

	res, err := p.Exchange(c.UserContext(), c.Query("code"), req.Verifier)
	if err != nil {
		log.Error().Err(err).Msg("oidc code exchange failed")
		return loginError(c, login.CodeExchange)
	}

	if _, err = s.deps.Sessions.Create(c, &session.Data{
		User:    res.Identity,
		Token:   res.Token,
		IDToken: res.IDToken,
	}); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return loginError(c, login.CodeSession)
	}

	log.Info().Str("user", res.Identity.Username).Str("subject", res.Identity.Subject).Msg("user signed in")

	if req.ReturnTo != "" {
		return c.Redirect(req.ReturnTo)
	}

	return c.Redirect(handler.DashboardPath)
}

// SafeReturnTo accepts only local absolute paths.
func SafeReturnTo(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return ""
	}

	return p
}
