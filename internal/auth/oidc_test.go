package auth

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoADConsole/GoADConsole/internal/auth/authtest"
	"github.com/GoADConsole/GoADConsole/internal/config"
)

func TestScopes(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.OIDC
		want []string
	}{
		{
			name: "defaults",
			want: []string{"openid", "profile", "email"},
		},
		{
			name: "api scopes appended",
			cfg:  config.OIDC{APIScopes: []string{"api://ad/Directory.ReadWrite"}},
			want: []string{"openid", "profile", "email", "api://ad/Directory.ReadWrite"},
		},
		{
			name: "openid added and duplicates removed",
			cfg: config.OIDC{
				Scopes:    []string{"profile", "offline_access"},
				APIScopes: []string{"offline_access", ""},
			},
			want: []string{"openid", "profile", "offline_access"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scopes(tt.cfg))
		})
	}
}

func TestNewProviderNotConfigured(t *testing.T) {
	_, err := NewProvider(context.Background(), config.OIDC{ClientID: "x"})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewProvider(context.Background(), config.OIDC{ProviderURL: "http://idp"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func login(t *testing.T, f *authtest.IDP, p *Provider) *LoginRequest {
	t.Helper()

	req, err := NewLoginRequest()
	require.NoError(t, err)

	u, err := url.Parse(p.AuthURL(req.State, req.Verifier))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, req.State, q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, authtest.ClientID, q.Get("client_id"))
	assert.NotContains(t, u.RawQuery, req.Verifier)
	require.NotEmpty(t, q.Get("code_challenge"))

	f.SetChallenge(q.Get("code_challenge"))

	return req
}

func TestLoginFlow(t *testing.T) {
	f := authtest.NewIDP(t, true)

	p, err := NewProvider(context.Background(), f.Config())
	require.NoError(t, err)

	req := login(t, f, p)

	res, err := p.Exchange(context.Background(), authtest.GoodCode, req.Verifier)
	require.NoError(t, err)

	assert.Equal(t, Identity{
		Subject:  "user-1",
		Username: "jane",
		Email:    "jane@corp.local",
		Name:     "Jane Admin",
		Groups:   []string{"AD Admins"},
	}, res.Identity)
	assert.Equal(t, "at-1", res.Token.AccessToken)
	assert.Equal(t, "rt-1", res.Token.RefreshToken)
	assert.NotEmpty(t, res.IDToken)
}

func TestExchangeRejectsWrongVerifier(t *testing.T) {
	f := authtest.NewIDP(t, false)

	p, err := NewProvider(context.Background(), f.Config())
	require.NoError(t, err)

	login(t, f, p)

	other, err := NewLoginRequest()
	require.NoError(t, err)

	_, err = p.Exchange(context.Background(), authtest.GoodCode, other.Verifier)
	require.Error(t, err)
}

func TestExchangeCustomGroupsClaim(t *testing.T) {
	f := authtest.NewIDP(t, false)
	f.SetClaim("roles", []string{"Helpdesk", "Operators"})
	f.SetClaim("preferred_username", "")

	cfg := f.Config()
	cfg.GroupsClaim = "roles"

	p, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)

	req := login(t, f, p)

	res, err := p.Exchange(context.Background(), authtest.GoodCode, req.Verifier)
	require.NoError(t, err)

	assert.Equal(t, []string{"Helpdesk", "Operators"}, res.Identity.Groups)
	assert.Equal(t, "jane@corp.local", res.Identity.Username, "falls back to email")
}

func TestRefresh(t *testing.T) {
	f := authtest.NewIDP(t, false)

	p, err := NewProvider(context.Background(), f.Config())
	require.NoError(t, err)

	req := login(t, f, p)

	res, err := p.Exchange(context.Background(), authtest.GoodCode, req.Verifier)
	require.NoError(t, err)

	fresh, err := p.Refresh(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, "at-2", fresh.AccessToken)
	assert.Equal(t, "rt-1", fresh.RefreshToken, "refresh token is kept when the response omits it")
	assert.Equal(t, 1, f.RefreshCount())
}

func TestLogoutURL(t *testing.T) {
	t.Run("end session supported", func(t *testing.T) {
		f := authtest.NewIDP(t, true)

		p, err := NewProvider(context.Background(), f.Config())
		require.NoError(t, err)

		u, err := url.Parse(p.LogoutURL("id.token", "http://console.local/login"))
		require.NoError(t, err)

		assert.Equal(t, "/logout", u.Path)
		assert.Equal(t, "id.token", u.Query().Get("id_token_hint"))
		assert.Equal(t, "http://console.local/login", u.Query().Get("post_logout_redirect_uri"))
		assert.Equal(t, authtest.ClientID, u.Query().Get("client_id"))
	})

	t.Run("end session unsupported", func(t *testing.T) {
		f := authtest.NewIDP(t, false)

		p, err := NewProvider(context.Background(), f.Config())
		require.NoError(t, err)

		assert.Empty(t, p.LogoutURL("id.token", "http://console.local/login"))
	})
}

func TestIdentityDisplayName(t *testing.T) {
	assert.Equal(t, "Jane", (&Identity{Name: "Jane", Username: "jane"}).DisplayName())
	assert.Equal(t, "jane", (&Identity{Username: "jane", Email: "j@corp"}).DisplayName())
	assert.Equal(t, "j@corp", (&Identity{Email: "j@corp"}).DisplayName())
}
