// Package oidc implements the authorization code flow with PKCE against the
// configured OpenID Connect provider.
//
// GET /auth/oidc/login stores a state token and a PKCE verifier in the session
// storage and redirects to the provider. GET /auth/oidc/callback checks the state,
// exchanges the code with the verifier, verifies the ID token and creates the
// console session holding the identity and the token used for the backend API.
// Errors end on the login page with an error code.
package oidc
