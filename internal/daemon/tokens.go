package daemon

import (
	"context"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/GoADConsole/GoADConsole/internal/config"
	"github.com/GoADConsole/GoADConsole/internal/realtime"
)

// HubTokens returns the token provider of the hub connections. Without a token URL the
// hubs are connected anonymously.
func HubTokens(cfg config.ClientCredentials) realtime.TokenProvider {
	if cfg.TokenURL == "" {
		return func(context.Context) (string, error) { return "", nil }
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}

	// the token source caches until expiry, it must outlive a single attempt
	ts := cc.TokenSource(context.Background())

	return func(context.Context) (string, error) {
		tok, err := ts.Token()
		if err != nil {
			return "", err
		}

		return tok.AccessToken, nil
	}
}
