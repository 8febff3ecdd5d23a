package store

import (
	"context"
	"errors"
	"io"
	"net"
)

// Common errors returned by the store client.
var (
	// ErrCacheMiss indicates the requested key was not found or has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnavailable is returned without contacting Redis while the
	// connection is not ready.
	ErrUnavailable = errors.New("store unavailable")

	// ErrConnect wraps the failure of the initial Connect call.
	ErrConnect = errors.New("store connect failed")

	// ErrClosed is returned by operations issued after Disconnect.
	ErrClosed = errors.New("store client closed")
)

// isConnectionError reports whether err means the connection itself is
// unusable, as opposed to a command-level error such as a wrong type.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
