package directory

import "errors"

var (
	// ErrUnknownNode is returned for a distinguished name that is neither in the tree nor in the search view.
	ErrUnknownNode = errors.New("directory node is not loaded")

	// ErrStale is returned when a newer request for the same target superseded this one.
	ErrStale = errors.New("directory response superseded by a newer request")

	// ErrInvalidDN is returned for a distinguished name that can not be parsed.
	ErrInvalidDN = errors.New("invalid distinguished name")
)
