package config

import (
	"time"

	"github.com/GoADConsole/GoADConsole/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Backend   Backend
	Realtime  Realtime
	Directory Directory
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool    // enable static file browsing (for development purposes only)
	DisableRecover bool    // disable recover middleware
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	CookieSecure   bool    // send the session cookie with the Secure flag
	Session        Session // session settings
}

// Auth holds the identity provider settings.
type Auth struct {
	OIDC OIDC
}

// OIDC holds the OpenID Connect client registration used for the login redirect flow.
type OIDC struct {
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	GroupsClaim  string

	// APIScopes are appended to the login scopes so the access token is accepted by the backend API.
	APIScopes []string
}

// Backend holds the AD management API settings.
type Backend struct {
	DefaultBaseURL string        // used until an api configuration was stored
	Timeout        time.Duration // per request timeout
	PingPath       string        // endpoint used to probe a candidate base url
}

// ClientCredentials is the daemon identity used for hub connections.
type ClientCredentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Realtime holds the hub client settings.
type Realtime struct {
	Enabled           bool
	Hubs              []string
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	ClientCredentials ClientCredentials
}

// Directory holds directory browser settings.
type Directory struct {
	SearchMaxResults     int
	WorkspaceIdleTimeout time.Duration
}
