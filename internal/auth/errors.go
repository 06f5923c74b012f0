package auth

import "errors"

var (
	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	// This typically indicates a misconfigured OIDC provider or an incomplete authentication flow.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrNotConfigured is returned when no provider url or client id is configured.
	ErrNotConfigured = errors.New("oidc provider is not configured")

	// ErrLoginRequired is returned when the cached token expired and could not be refreshed.
	ErrLoginRequired = errors.New("login required")

	// ErrNoSubject is returned when the verified ID token carries no subject claim.
	ErrNoSubject = errors.New("id token has no subject")
)
