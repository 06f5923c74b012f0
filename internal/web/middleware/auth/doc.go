// Package auth is the navigation guard of the console.
//
// Requests without a valid session are redirected to the login page, JSON requests
// get a 401 with the redirect target instead. A signed in user opening the login
// page is sent to the dashboard. For authenticated requests the session, its id and
// the user identity are stored in fiber.Locals for handlers and templates.
//
// Static files, the OIDC endpoints, logout, checkalive and metrics stay public.
//
//	app.Use(auth.New(sessions))
package auth
