package remote

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned by requests sent before Authenticate succeeded.
var ErrNotAuthenticated = errors.New("not authenticated to the server")

// ResponseError is returned when the server answers with a non-2xx status.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
