package errors

import (
	stderr "errors"
	"fmt"
)

// SessionNotFoundError is a service domain error for an unknown session id.
type SessionNotFoundError struct {
	SessionID string
}

// Error is an implementation of the error interface.
func (n *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", n.SessionID)
}

// NotFoundSession returns the session id and true if SessionNotFoundError is part of the
// error chain.
func NotFoundSession(e error) (_ string, ok bool) {
	var nf *SessionNotFoundError
	if !stderr.As(e, &nf) {
		return "", false
	}
	return nf.SessionID, true
}

// UnitNotFoundError indicates that a browsing unit is not known to the index.
type UnitNotFoundError struct {
	UnitID int64
}

// Error is an implementation of the error interface.
func (n *UnitNotFoundError) Error() string {
	return fmt.Sprintf("unit %d not found", n.UnitID)
}

// NoSessionError indicates that a unit is not attributed to any session.
type NoSessionError struct {
	UnitID int64
}

// Error is an implementation of the error interface.
func (n *NoSessionError) Error() string {
	return fmt.Sprintf("no session for unit %d", n.UnitID)
}

// NoURLError indicates that a cookie operation was requested without a usable URL.
type NoURLError struct {
	URL string
}

// Error is an implementation of the error interface.
func (n *NoURLError) Error() string {
	if n.URL == "" {
		return "no url provided"
	}
	return fmt.Sprintf("url %q has no host", n.URL)
}

// NoClientError indicates that no client connection is available for an outbound call.
type NoClientError struct{}

// Error is an implementation of the error interface.
func (*NoClientError) Error() string {
	return "no client connected"
}
