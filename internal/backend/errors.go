package backend

import "errors"

var (
	// ErrHostEmpty is returned when configureApi is called without a host.
	ErrHostEmpty = errors.New("api host cannot be empty")

	// ErrInvalidPort is returned for a port outside 1-65535.
	ErrInvalidPort = errors.New("api port must be a number between 1 and 65535")

	// ErrNotOpened is returned when the engine has no base URL yet.
	ErrNotOpened = errors.New("backend engine has no base URL")
)
