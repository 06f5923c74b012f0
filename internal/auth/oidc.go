package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/GoADConsole/GoADConsole/internal/config"
)

// Identity is the signed in user as described by the ID token.
type Identity struct {
	Subject  string   `json:"subject"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Groups   []string `json:"groups,omitempty"`
}

// DisplayName returns the best human readable name of the identity.
func (i *Identity) DisplayName() string {
	switch {
	case i.Name != "":
		return i.Name
	case i.Username != "":
		return i.Username
	default:
		return i.Email
	}
}

// LoginResult is the outcome of a successful authorization code exchange.
type LoginResult struct {
	Identity Identity
	Token    *oauth2.Token
	IDToken  string
}

// Provider handles the OIDC authorization code flow.
type Provider struct {
	cfg        config.OIDC
	provider   *oidc.Provider
	verifier   *oidc.IDTokenVerifier
	oauth2     oauth2.Config
	endSession string
}

// NewProvider discovers the OIDC provider and prepares the oauth2 client.
func NewProvider(ctx context.Context, cfg config.OIDC) (*Provider, error) {
	if cfg.ProviderURL == "" || cfg.ClientID == "" {
		return nil, ErrNotConfigured
	}

	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
	})

	oauth2Config := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       Scopes(cfg),
	}

	// end_session_endpoint is optional in the discovery document
	var meta struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}

	_ = provider.Claims(&meta)

	return &Provider{
		cfg:        cfg,
		provider:   provider,
		verifier:   verifier,
		oauth2:     oauth2Config,
		endSession: meta.EndSessionEndpoint,
	}, nil
}

// Scopes returns the login scopes followed by the API scopes without duplicates.
func Scopes(cfg config.OIDC) []string {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	out := make([]string, 0, len(scopes)+len(cfg.APIScopes)+1)
	if !slices.Contains(scopes, oidc.ScopeOpenID) {
		out = append(out, oidc.ScopeOpenID)
	}

	for _, s := range slices.Concat(scopes, cfg.APIScopes) {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	return out
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// AuthURL returns the authorization URL carrying the state and the S256 challenge of verifier.
func (p *Provider) AuthURL(state, verifier string) string {
	return p.oauth2.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the authorization code for tokens and verifies the ID token.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*LoginResult, error) {
	oauth2Token, err := p.oauth2.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Sub               string   `json:"sub"`
		Email             string   `json:"email"`
		Name              string   `json:"name"`
		PreferredUsername string   `json:"preferred_username"`
		Groups            []string `json:"groups"`
	}

	if err = idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	if claims.Sub == "" {
		return nil, ErrNoSubject
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Email
	}

	if username == "" {
		username = claims.Sub
	}

	return &LoginResult{
		Identity: Identity{
			Subject:  claims.Sub,
			Username: username,
			Email:    claims.Email,
			Name:     claims.Name,
			Groups:   p.groupsFromToken(idToken, claims.Groups),
		},
		Token:   oauth2Token,
		IDToken: rawIDToken,
	}, nil
}

// groupsFromToken determines the user's groups using the configured claim.
func (p *Provider) groupsFromToken(idToken *oidc.IDToken, defaultGroups []string) []string {
	gc := p.cfg.GroupsClaim
	if gc == "" || gc == "groups" {
		return defaultGroups
	}

	var allClaims map[string]any
	if err := idToken.Claims(&allClaims); err != nil {
		return defaultGroups
	}

	v, ok := allClaims[gc].([]any)
	if !ok {
		return defaultGroups
	}

	groups := make([]string, 0, len(v))

	for _, g := range v {
		if s, ok := g.(string); ok {
			groups = append(groups, s)
		}
	}

	return groups
}

// Refresh obtains a new token set using the refresh token of tok.
func (p *Provider) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	ts := p.oauth2.TokenSource(ctx, &oauth2.Token{
		RefreshToken: tok.RefreshToken,
	})

	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	return fresh, nil
}

// LogoutURL returns the provider's end session URL or an empty string when unsupported.
func (p *Provider) LogoutURL(idToken, postLogoutRedirectURI string) string {
	if p.endSession == "" {
		return ""
	}

	u, err := url.Parse(p.endSession)
	if err != nil {
		return ""
	}

	q := u.Query()
	if idToken != "" {
		q.Set("id_token_hint", idToken)
	}

	if postLogoutRedirectURI != "" {
		q.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	}

	q.Set("client_id", p.cfg.ClientID)
	u.RawQuery = q.Encode()

	return u.String()
}
