// Package auth wraps the OpenID Connect identity provider used by the console.
//
// The console never stores passwords. Users sign in through the provider's
// authorization code flow with PKCE and the resulting tokens are kept in the
// server side session.
//
// # Context
//
// Context is created once per process and discovers the provider lazily on
// first use. A failed discovery is reported through State and retried on the
// next login attempt, a successful one is kept for the lifetime of the process.
//
// # Tokens
//
// SessionTokenSource hands out the access token cached in the session as long
// as it has not expired. An expired token is refreshed silently and written
// back to the session. When no refresh is possible ErrLoginRequired is
// returned and the caller sends the user back through the login flow.
//
// Example usage:
//
//	authCtx := auth.NewContext(cfg.Auth.OIDC)
//
//	// login redirect
//	req, err := auth.NewLoginRequest()
//	p, err := authCtx.Provider(ctx)
//	redirect := p.AuthURL(req.State, req.Verifier)
//
//	// callback
//	result, err := p.Exchange(ctx, code, req.Verifier)
//
//	// backend calls
//	ts := auth.NewSessionTokenSource(ctx, p, result.Token, save)
package auth
