// Package authtest provides a minimal OpenID provider for tests.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/GoADConsole/GoADConsole/internal/config"
)

const (
	// ClientID is the client registered at the provider.
	ClientID = "console"

	// GoodCode is the only authorization code the token endpoint accepts.
	GoodCode = "good-code"

	keyID = "test-key"
)

// IDP is a minimal OpenID provider with discovery, keys and a token endpoint.
// Refresh requests succeed for the refresh token issued by the code exchange.
type IDP struct {
	srv        *httptest.Server
	key        *rsa.PrivateKey
	endSession bool

	mu        sync.Mutex
	challenge string
	claims    map[string]any
	refreshes int
}

// NewIDP starts a provider, endSession enables the end_session_endpoint.
func NewIDP(t *testing.T, endSession bool) *IDP {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &IDP{key: key, endSession: endSession}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", f.discovery)
	mux.HandleFunc("/keys", f.keys)
	mux.HandleFunc("/token", f.token)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	f.claims = map[string]any{
		"sub":                "user-1",
		"email":              "jane@corp.local",
		"name":               "Jane Admin",
		"preferred_username": "jane",
		"groups":             []string{"AD Admins"},
	}

	return f
}

// Config returns a client registration for the provider.
func (f *IDP) Config() config.OIDC {
	return config.OIDC{
		ProviderURL:  f.srv.URL,
		ClientID:     ClientID,
		ClientSecret: "secret",
		RedirectURL:  "http://console.local/auth/oidc/callback",
	}
}

// SetChallenge sets the PKCE challenge the next code exchange must match.
func (f *IDP) SetChallenge(c string) {
	f.mu.Lock()
	f.challenge = c
	f.mu.Unlock()
}

// SetClaim sets a claim of issued ID tokens.
func (f *IDP) SetClaim(k string, v any) {
	f.mu.Lock()
	f.claims[k] = v
	f.mu.Unlock()
}

// RefreshCount returns the number of successful refreshes.
func (f *IDP) RefreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.refreshes
}

func (f *IDP) discovery(w http.ResponseWriter, _ *http.Request) {
	doc := map[string]any{
		"issuer":                                f.srv.URL,
		"authorization_endpoint":                f.srv.URL + "/authorize",
		"token_endpoint":                        f.srv.URL + "/token",
		"jwks_uri":                              f.srv.URL + "/keys",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	}

	if f.endSession {
		doc["end_session_endpoint"] = f.srv.URL + "/logout"
	}

	writeJSON(w, http.StatusOK, doc)
}

func (f *IDP) keys(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &f.key.PublicKey,
		KeyID:     keyID,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}}})
}

func (f *IDP) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") != GoodCode ||
			oauth2.S256ChallengeFromVerifier(r.PostForm.Get("code_verifier")) != f.challenge {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}

		claims := map[string]any{
			"iss": f.srv.URL,
			"aud": ClientID,
			"iat": time.Now().Unix(),
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		for k, v := range f.claims {
			claims[k] = v
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "at-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "rt-1",
			"id_token":      f.sign(claims),
		})
	case "refresh_token":
		if r.PostForm.Get("refresh_token") != "rt-1" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}

		f.refreshes++

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "at-2",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (f *IDP) sign(claims map[string]any) string {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: jose.JSONWebKey{Key: f.key, KeyID: keyID}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		panic(err)
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		panic(err)
	}

	jws, err := signer.Sign(payload)
	if err != nil {
		panic(err)
	}

	token, err := jws.CompactSerialize()
	if err != nil {
		panic(err)
	}

	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
