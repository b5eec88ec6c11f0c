package domain

import (
	"errors"
	"fmt"
)

// TransportError reports a failed route fetch: network failure, non-200
// response, unreadable source or malformed payload.
type TransportError struct {
	Op         string // "fetch", "decode", "read", ...
	URL        string // request URL or source description
	StatusCode int    // HTTP status, 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("transport %s %s: HTTP %d", e.Op, e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("transport %s %s: %v", e.Op, e.URL, e.Err)
	default:
		return fmt.Sprintf("transport %s %s failed", e.Op, e.URL)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ErrCacheMiss is returned by cache adapters when a key is absent.
var ErrCacheMiss = errors.New("cache miss")
