package transport

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by Send while the session is anything other
// than connected. Sends are never buffered across a reconnect.
var ErrNotConnected = errors.New("transport: not connected")

// AuthError means the server rejected the token, either at the handshake
// or via an auth_error event. It is fatal for the session: no retry, the
// caller must obtain a fresh token.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "transport: authentication rejected"
	}
	return fmt.Sprintf("transport: authentication rejected: %s", e.Reason)
}

// NetworkError wraps a transient connectivity failure. The session retries
// these with backoff; callers only see one when retries are exhausted or
// on the initial connect.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
