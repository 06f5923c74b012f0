package realtime

import "errors"

var (
	// ErrHandshake is returned when the hub rejects the protocol handshake.
	ErrHandshake = errors.New("hub handshake failed")

	// ErrClosedByServer is returned when the hub sent a close message without allowing reconnect.
	ErrClosedByServer = errors.New("hub closed the connection")

	// ErrNotConnected is returned when sending on a connection that is not established.
	ErrNotConnected = errors.New("hub connection is not established")

	// ErrTooManyRedirects is returned when negotiate keeps redirecting.
	ErrTooManyRedirects = errors.New("hub negotiate redirected too often")
)
