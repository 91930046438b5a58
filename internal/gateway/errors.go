package gateway

import (
	"fmt"
	"net/http"
)

// RemoteError describes why a remote call could not be used. The gateway never
// returns it; it is logged and counted before the local store takes over.
type RemoteError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s %s: status %d %s", e.Op, e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Method, e.Path, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Reason is a short label for metrics.
func (e *RemoteError) Reason() string {
	switch {
	case e.StatusCode >= 500:
		return "server_error"
	case e.StatusCode >= 400:
		return "client_error"
	case e.StatusCode != 0:
		return "unexpected_status"
	default:
		return "transport"
	}
}
