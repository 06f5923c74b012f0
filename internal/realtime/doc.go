// Package realtime is a client for the backend's real-time hubs.
//
// The hubs speak the SignalR JSON hub protocol over a WebSocket: a negotiate call,
// records terminated by 0x1E, a handshake, then invocation, ping and close messages.
// One Connection is kept per hub name. A fresh bearer token is requested for every
// connection attempt, and a dropped connection is re-established with capped
// exponential backoff.
//
// Handlers registered for a (hub, event) pair run synchronously on the connection's
// read goroutine in registration order.
package realtime
