// Package login provides the login page of the console.
//
// This file defines the error codes the OIDC handlers pass back to the login page.
package login

const (
	// CodeProvider means the identity provider could not be reached.
	CodeProvider = "provider"

	// CodeState means the callback carried an unknown or expired state.
	CodeState = "state"

	// CodeDenied means the provider reported an error instead of a code.
	CodeDenied = "denied"

	// CodeExchange means the code exchange or the ID token verification failed.
	CodeExchange = "exchange"

	// CodeSession means the session could not be stored.
	CodeSession = "session"

	// CodeExpired means the session ended and the user has to sign in again.
	CodeExpired = "expired"
)

var messages = map[string]string{
	CodeProvider: "The identity provider is not reachable. Please try again later.",
	CodeState:    "The login request expired. Please sign in again.",
	CodeDenied:   "The identity provider denied the login.",
	CodeExchange: "The login could not be completed.",
	CodeSession:  "Internal server error",
	CodeExpired:  "Your session has expired. Please sign in again.",
}

// Message returns the text shown for an error code, empty for unknown codes.
func Message(code string) string {
	return messages[code]
}
