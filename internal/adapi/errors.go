package adapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches a 401 or 403 answer from the backend.
	ErrUnauthorized = errors.New("backend rejected the credentials")

	// ErrNoBaseURL is returned when no backend address is configured.
	ErrNoBaseURL = errors.New("backend base URL is not configured")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 and 403.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}
