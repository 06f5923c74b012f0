// Package main provides the entry point of GoADConsole, a web console for Active
// Directory administration. The console signs users in through OpenID Connect,
// browses the directory tree served by an AD management API, resolves checked
// containers into a user selection and runs bulk actions on it. Dashboard data
// is kept current through the API's realtime hubs. The application uses fiber
// for the web layer and gorm to persist the API endpoint configuration.
package main
