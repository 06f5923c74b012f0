package handler

import "errors"

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// LoginPath is the path of the login page.
	LoginPath = "/login"

	// DashboardPath is where signed in users land.
	DashboardPath = "/dashboard"

	// RouterRootPath is the path of a route group's index.
	RouterRootPath = ""

	// ErrNilACDFatalLogMsg is used if app or deps var pointer is nil.
	ErrNilACDFatalLogMsg = "app or deps is nil"

	// LocalSession holds the *session.Data of an authenticated request.
	LocalSession = "Session"

	// LocalSessionID holds the session id of an authenticated request.
	LocalSessionID = "SessionID"

	// LocalUser holds the *auth.Identity shown in the page header.
	LocalUser = "CurrentUser"
)

// ErrNilDeps is returned by Init when app or deps is nil.
var ErrNilDeps = errors.New(ErrNilACDFatalLogMsg)
